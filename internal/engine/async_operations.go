package engine

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/indexing"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// addTextsBatchSize is how many texts an import job stores between progress
// updates and cancellation checks.
const addTextsBatchSize = 100

// submit creates a job and hands fn to the job manager.
func (e *Engine) submit(jobType model.JobType, corpusName string, metadata map[string]string, fn func(ctx context.Context, jobID string) error) (string, error) {
	jobID := e.jobManager.CreateJob(jobType, corpusName, metadata)
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		return fn(ctx, job.ID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s job: %w", jobType, err)
	}
	return jobID, nil
}

// AddTextsAsync adds texts to a corpus in the background. The batch is
// validated up front, so a job never stores part of an invalid batch.
func (e *Engine) AddTextsAsync(corpusName string, texts []model.Text) (string, error) {
	if _, err := e.corpus(corpusName); err != nil {
		return "", err
	}
	if err := indexing.ValidateTexts(texts); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeAddTexts, corpusName, map[string]string{
		"operation":  "add_texts",
		"text_count": strconv.Itoa(len(texts)),
	}, func(ctx context.Context, jobID string) error {
		return e.executeAddTextsJob(ctx, corpusName, texts, jobID)
	})
}

// executeAddTextsJob stores texts batch by batch. Cancellation stops between
// batches; texts already stored stay stored and are persisted.
func (e *Engine) executeAddTextsJob(ctx context.Context, corpusName string, texts []model.Text, jobID string) error {
	instance, err := e.corpus(corpusName)
	if err != nil {
		return err
	}

	total := len(texts)
	e.jobManager.UpdateJobProgress(jobID, 0, total, "Adding texts")
	var jobErr error
	for i := 0; i < total; i += addTextsBatchSize {
		if err := ctx.Err(); err != nil {
			jobErr = fmt.Errorf("stopped after %d of %d texts: %w", i, total, err)
			break
		}
		end := min(i+addTextsBatchSize, total)
		if err := instance.AddTexts(texts[i:end]); err != nil {
			jobErr = fmt.Errorf("failed to add texts to corpus '%s': %w", corpusName, err)
			break
		}
		e.jobManager.UpdateJobProgress(jobID, end, total, fmt.Sprintf("Added %d of %d texts", end, total))
	}

	if err := e.PersistCorpusData(corpusName); err != nil {
		if jobErr == nil {
			jobErr = err
		}
	}
	if jobErr == nil {
		e.logger.Info("added texts", zap.String("corpus", corpusName), zap.Int("count", total))
	}
	return jobErr
}

// DeleteAllTextsAsync empties a corpus in the background.
func (e *Engine) DeleteAllTextsAsync(corpusName string) (string, error) {
	if _, err := e.corpus(corpusName); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeDeleteAllTexts, corpusName, map[string]string{
		"operation": "delete_all_texts",
	}, func(_ context.Context, _ string) error {
		instance, err := e.corpus(corpusName)
		if err != nil {
			return err
		}
		if err := instance.DeleteAllTexts(); err != nil {
			return fmt.Errorf("failed to delete all texts from corpus '%s': %w", corpusName, err)
		}
		return e.PersistCorpusData(corpusName)
	})
}

// DeleteTextAsync deletes one text in the background.
func (e *Engine) DeleteTextAsync(corpusName, textID string) (string, error) {
	if _, err := e.corpus(corpusName); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeDeleteText, corpusName, map[string]string{
		"operation": "delete_text",
		"text_id":   textID,
	}, func(_ context.Context, _ string) error {
		instance, err := e.corpus(corpusName)
		if err != nil {
			return err
		}
		if err := instance.DeleteText(textID); err != nil {
			return err
		}
		return e.PersistCorpusData(corpusName)
	})
}

// CreateCorpusAsync creates a corpus in the background. Settings are
// validated before the job is submitted.
func (e *Engine) CreateCorpusAsync(settings config.CorpusSettings) (string, error) {
	if err := validateSettings(&settings); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeCreateCorpus, settings.Name, map[string]string{
		"operation": "create_corpus",
	}, func(_ context.Context, _ string) error {
		return e.CreateCorpus(settings)
	})
}

// DeleteCorpusAsync deletes a corpus in the background.
func (e *Engine) DeleteCorpusAsync(corpusName string) (string, error) {
	if _, err := e.corpus(corpusName); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeDeleteCorpus, corpusName, map[string]string{
		"operation": "delete_corpus",
	}, func(_ context.Context, _ string) error {
		return e.DeleteCorpus(corpusName)
	})
}

// RenameCorpusAsync renames a corpus in the background.
func (e *Engine) RenameCorpusAsync(oldName, newName string) (string, error) {
	if _, err := e.corpus(oldName); err != nil {
		return "", err
	}

	return e.submit(model.JobTypeRenameCorpus, oldName, map[string]string{
		"operation": "rename_corpus",
		"old_name":  oldName,
		"new_name":  newName,
	}, func(_ context.Context, _ string) error {
		return e.RenameCorpus(oldName, newName)
	})
}

// UpdateCorpusSettingsAsync updates settings in the background. The job type
// is reindex when the category hierarchy changes, update_settings otherwise.
func (e *Engine) UpdateCorpusSettingsAsync(name string, newSettings config.CorpusSettings) (string, error) {
	instance, err := e.corpus(name)
	if err != nil {
		return "", err
	}

	jobType := model.JobTypeUpdateSettings
	operation := "search_time_settings_update"
	if requiresReindexing(instance.Settings(), newSettings) {
		jobType = model.JobTypeReindex
		operation = "settings_update_with_reindex"
	}

	return e.submit(jobType, name, map[string]string{
		"operation": operation,
	}, func(_ context.Context, _ string) error {
		return e.UpdateCorpusSettings(name, newSettings)
	})
}
