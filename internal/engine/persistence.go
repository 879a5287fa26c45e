package engine

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/index"
	"github.com/gcbaptista/go-concordance-engine/internal/persistence"
	"github.com/gcbaptista/go-concordance-engine/store"
)

const (
	dataDirPerm       = 0755
	settingsFile      = "settings.gob"
	textStoreFile     = "texts.gob"
	categoryIndexFile = "category_index.gob"
)

// loadCorporaFromDisk loads every corpus directory under the data directory.
// A corpus whose settings cannot be read is skipped; missing or corrupt text
// and index files leave the corpus empty or trigger a rebuild.
func (e *Engine) loadCorporaFromDisk() {
	e.logger.Info("loading corpora from disk", zap.String("data_dir", e.dataDir))

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no corpora loaded", zap.String("data_dir", e.dataDir), zap.Error(err))
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		name := item.Name()
		instance, err := e.loadCorpus(name)
		if err != nil {
			e.logger.Warn("skipping corpus", zap.String("corpus", name), zap.Error(err))
			continue
		}
		e.corpora[name] = instance
		e.logger.Info("loaded corpus", zap.String("corpus", name), zap.Int("texts", instance.TextStore.Len()))
	}
}

func (e *Engine) loadCorpus(name string) (*CorpusInstance, error) {
	corpusPath := filepath.Join(e.dataDir, name)

	var settings config.CorpusSettings
	if err := persistence.LoadGob(filepath.Join(corpusPath, settingsFile), &settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Name != name {
		return nil, fmt.Errorf("corpus name in settings ('%s') does not match directory name", settings.Name)
	}
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings: %v", problems)
	}

	textStore := store.NewTextStore()
	tsPath := filepath.Join(corpusPath, textStoreFile)
	if err := persistence.LoadGob(tsPath, textStore); err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to load text store, starting empty", zap.String("corpus", name), zap.Error(err))
		}
		textStore = store.NewTextStore()
	}

	rebuild := false
	catIndex := index.NewCategoryIndex()
	ciPath := filepath.Join(corpusPath, categoryIndexFile)
	if err := persistence.LoadGob(ciPath, catIndex); err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to load category index, rebuilding", zap.String("corpus", name), zap.Error(err))
		}
		catIndex = index.NewCategoryIndex()
		rebuild = textStore.Len() > 0
	}

	instance, err := newCorpusInstanceFromData(settings, textStore, catIndex, e.logger)
	if err != nil {
		return nil, err
	}
	if rebuild {
		if err := instance.reindex(); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// persistCorpusUnsafe writes the settings, texts and category index of a
// corpus. The caller must hold e.mu (read or write).
func (e *Engine) persistCorpusUnsafe(name string, instance *CorpusInstance) error {
	corpusPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(corpusPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create corpus directory %s: %w", corpusPath, err)
	}

	settings := instance.Settings()
	if err := persistence.SaveGob(filepath.Join(corpusPath, settingsFile), settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := persistence.SaveGob(filepath.Join(corpusPath, textStoreFile), instance.TextStore); err != nil {
		return fmt.Errorf("failed to save text store: %w", err)
	}
	if err := persistence.SaveGob(filepath.Join(corpusPath, categoryIndexFile), instance.CategoryIndex); err != nil {
		return fmt.Errorf("failed to save category index: %w", err)
	}
	return nil
}

// PersistCorpusData saves the current state of a corpus to disk.
func (e *Engine) PersistCorpusData(corpusName string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.corpora[corpusName]
	if !exists {
		return corpusNotFound(corpusName)
	}
	if err := e.persistCorpusUnsafe(corpusName, instance); err != nil {
		return fmt.Errorf("failed to persist corpus '%s': %w", corpusName, err)
	}
	e.logger.Debug("persisted corpus", zap.String("corpus", corpusName))
	return nil
}
