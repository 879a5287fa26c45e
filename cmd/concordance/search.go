package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-concordance-engine/internal/engine"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/services"
)

var (
	searchCorpus   string
	searchPattern  string
	searchTextIDs  []string
	searchOverlap  string
	searchPage     int
	searchPageSize int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a pattern over a stored corpus and print concordance lines",
	Example: `  concordance search --corpus stories --pattern '[{"type":"word","category":"noun"}]'
  concordance search --corpus stories --pattern @pattern.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readArgument(searchPattern)
		if err != nil {
			return err
		}
		root, err := pattern.Decode(data)
		if err != nil {
			return err
		}

		eng := engine.NewEngine(serverConfig.DataDir, 1, logger)
		defer eng.Close()

		corpus, err := eng.GetCorpus(searchCorpus)
		if err != nil {
			return err
		}
		result, err := corpus.Search(cmd.Context(), services.SearchQuery{
			Pattern:     root,
			TextIDs:     searchTextIDs,
			OverlapMode: searchOverlap,
			Page:        searchPage,
			PageSize:    searchPageSize,
		})
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printConcordance(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVar(&searchCorpus, "corpus", "", "Corpus to search")
	flags.StringVar(&searchPattern, "pattern", "", "Pattern JSON, or @file to read it from a file")
	flags.StringSliceVar(&searchTextIDs, "text", nil, "Restrict the search to these text IDs")
	flags.StringVar(&searchOverlap, "overlap", "", "Overlap mode: non_overlapping or all_starts")
	flags.IntVar(&searchPage, "page", 1, "Result page")
	flags.IntVar(&searchPageSize, "page-size", 20, "Lines per page")
	flags.BoolVar(&searchJSON, "json", false, "Print the result as JSON")
	_ = searchCmd.MarkFlagRequired("corpus")
	_ = searchCmd.MarkFlagRequired("pattern")
}

// readArgument returns arg itself, or the contents of the file it names when
// it starts with '@'.
func readArgument(arg string) ([]byte, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	}
	return []byte(arg), nil
}

func printConcordance(w io.Writer, result services.SearchResult) {
	fmt.Fprintf(w, "%s: %d matches in %d paragraphs (%d ms)\n",
		result.Pattern, result.Total, result.ParagraphsScanned, result.Took)
	if result.StaleOccurrences > 0 {
		fmt.Fprintf(w, "%d stale occurrences skipped\n", result.StaleOccurrences)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, line := range result.Lines {
		fmt.Fprintf(tw, "%s/%s\t%s\t[%s]\t%s\t\n", line.TextID, line.ParagraphID, line.Left, line.Match, line.Right)
	}
	_ = tw.Flush()
}
