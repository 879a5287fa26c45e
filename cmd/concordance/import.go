package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/engine"
	"github.com/gcbaptista/go-concordance-engine/model"
)

var (
	importCorpus   string
	importSettings string
)

var importCmd = &cobra.Command{
	Use:   "import [text files...]",
	Short: "Load texts from JSON files into a corpus",
	Long: `Load texts from JSON files into a corpus. Each file holds one text object
or an array of them. The corpus is created from --settings when it does not
exist yet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.NewEngine(serverConfig.DataDir, 1, logger)
		defer eng.Close()

		if _, err := eng.GetCorpus(importCorpus); err != nil {
			settings := config.CorpusSettings{Name: importCorpus}
			if importSettings != "" {
				settings, err = config.LoadCorpusSettings(importSettings)
				if err != nil {
					return err
				}
				settings.Name = importCorpus
			}
			if err := eng.CreateCorpus(settings); err != nil {
				return err
			}
			logger.Info("created corpus", zap.String("corpus", importCorpus))
		}

		var texts []model.Text
		for _, path := range args {
			loaded, err := readTextFile(path)
			if err != nil {
				return err
			}
			texts = append(texts, loaded...)
		}

		corpus, err := eng.GetCorpus(importCorpus)
		if err != nil {
			return err
		}
		if err := corpus.AddTexts(texts); err != nil {
			return err
		}
		if err := eng.PersistCorpusData(importCorpus); err != nil {
			return err
		}

		stats := corpus.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d texts into %s (%d texts, %d paragraphs, %d occurrences)\n",
			len(texts), importCorpus, stats.TextCount, stats.ParagraphCount, stats.OccurrenceCount)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCorpus, "corpus", "", "Corpus to load the texts into")
	importCmd.Flags().StringVar(&importSettings, "settings", "", "Corpus settings file used when the corpus is created")
	_ = importCmd.MarkFlagRequired("corpus")
}

func readTextFile(path string) ([]model.Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var texts []model.Text
		if err := json.Unmarshal(data, &texts); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return texts, nil
	}
	var text model.Text
	if err := json.Unmarshal(data, &text); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []model.Text{text}, nil
}
