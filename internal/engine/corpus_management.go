package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/services"
)

func corpusNotFound(name string) error {
	return errors.NewCorpusNotFoundError(name)
}

// validateSettings applies defaults and rejects unusable settings.
func validateSettings(settings *config.CorpusSettings) error {
	if problems := settings.Validate(); len(problems) > 0 {
		return errors.NewValidationError("settings", strings.Join(problems, "; "))
	}
	settings.ApplyDefaults()
	return nil
}

// CreateCorpus creates a new corpus with the given settings and persists it.
func (e *Engine) CreateCorpus(settings config.CorpusSettings) error {
	if err := validateSettings(&settings); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.corpora[settings.Name]; exists {
		return errors.NewCorpusAlreadyExistsError(settings.Name)
	}

	instance, err := NewCorpusInstance(settings, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create corpus instance for '%s': %w", settings.Name, err)
	}
	if err := e.persistCorpusUnsafe(settings.Name, instance); err != nil {
		return fmt.Errorf("failed to persist new corpus '%s': %w", settings.Name, err)
	}

	e.corpora[settings.Name] = instance
	e.logger.Info("corpus created", zap.String("corpus", settings.Name))
	return nil
}

// GetCorpus retrieves a corpus by name.
func (e *Engine) GetCorpus(name string) (services.CorpusAccessor, error) {
	instance, err := e.corpus(name)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (e *Engine) corpus(name string) (*CorpusInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.corpora[name]
	if !exists {
		return nil, corpusNotFound(name)
	}
	return instance, nil
}

// GetCorpusSettings returns the settings of a corpus.
func (e *Engine) GetCorpusSettings(name string) (config.CorpusSettings, error) {
	instance, err := e.corpus(name)
	if err != nil {
		return config.CorpusSettings{}, err
	}
	return instance.Settings(), nil
}

// ListCorpora returns the names of all corpora, sorted.
func (e *Engine) ListCorpora() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.corpora))
	for name := range e.corpora {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteCorpus removes a corpus from memory and its data from disk.
func (e *Engine) DeleteCorpus(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.corpora[name]; !exists {
		return corpusNotFound(name)
	}
	delete(e.corpora, name)

	corpusPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(corpusPath); err != nil {
		e.logger.Warn("corpus removed from memory but its data could not be deleted",
			zap.String("corpus", name), zap.String("path", corpusPath), zap.Error(err))
		return fmt.Errorf("failed to delete data of corpus '%s': %w", name, err)
	}
	e.logger.Info("corpus deleted", zap.String("corpus", name))
	return nil
}

// RenameCorpus renames a corpus in memory and on disk.
func (e *Engine) RenameCorpus(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.NewValidationError("new_name", "corpus name cannot be empty")
	}
	if oldName == newName {
		return errors.NewSameNameError(oldName)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.corpora[oldName]
	if !exists {
		return corpusNotFound(oldName)
	}
	if _, exists := e.corpora[newName]; exists {
		return errors.NewCorpusAlreadyExistsError(newName)
	}

	settings := instance.Settings()
	settings.Name = newName
	if err := instance.setSettings(settings); err != nil {
		return err
	}

	oldPath := filepath.Join(e.dataDir, oldName)
	newPath := filepath.Join(e.dataDir, newName)
	if err := os.Rename(oldPath, newPath); err != nil && !os.IsNotExist(err) {
		settings.Name = oldName
		_ = instance.setSettings(settings)
		return fmt.Errorf("failed to move corpus data from %s to %s: %w", oldPath, newPath, err)
	}

	delete(e.corpora, oldName)
	e.corpora[newName] = instance
	if err := e.persistCorpusUnsafe(newName, instance); err != nil {
		return fmt.Errorf("failed to persist renamed corpus '%s': %w", newName, err)
	}
	e.logger.Info("corpus renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}
