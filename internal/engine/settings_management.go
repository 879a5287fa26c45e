package engine

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
)

// UpdateCorpusSettings replaces the settings of a corpus. The name cannot be
// changed here (see RenameCorpus). When the category hierarchy changes the
// category index is rebuilt before the call returns.
func (e *Engine) UpdateCorpusSettings(name string, newSettings config.CorpusSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.corpora[name]
	if !exists {
		return corpusNotFound(name)
	}
	if err := e.applySettingsUnsafe(instance, name, newSettings); err != nil {
		return err
	}
	return e.persistCorpusUnsafe(name, instance)
}

// applySettingsUnsafe validates and installs new settings on a corpus,
// reindexing when required. The caller must hold e.mu.
func (e *Engine) applySettingsUnsafe(instance *CorpusInstance, name string, newSettings config.CorpusSettings) error {
	if newSettings.Name == "" {
		newSettings.Name = name
	}
	if newSettings.Name != name {
		return errors.NewValidationError("name", "use the rename operation to change a corpus name")
	}
	if err := validateSettings(&newSettings); err != nil {
		return err
	}

	reindex := requiresReindexing(instance.Settings(), newSettings)
	if err := instance.applySettings(newSettings, reindex); err != nil {
		return fmt.Errorf("failed to apply settings to corpus '%s': %w", name, err)
	}
	if reindex {
		e.logger.Info("corpus reindexed after category change", zap.String("corpus", name))
	}
	return nil
}

// requiresReindexing reports whether the category index depends on what
// changed. Only the category hierarchy is baked into the postings.
func requiresReindexing(oldSettings, newSettings config.CorpusSettings) bool {
	return !slices.Equal(oldSettings.Categories, newSettings.Categories)
}
