package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/appdeck/model"
)

var (
	searchLimit   int
	searchJSON    bool
	searchDetails bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search installed applications",
	Long: `Ranks installed applications against the query. Names that start with
the query rank first, then names or bundle identifiers containing it, then
names containing its characters in order. An empty query lists everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchDetails, "details", false, "show match kind, field and score")
	rootCmd.AddCommand(searchCmd)
}

type searchResult struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SecondaryKey string  `json:"secondaryKey,omitempty"`
	SourcePath   string  `json:"sourcePath,omitempty"`
	Kind         string  `json:"kind"`
	Field        string  `json:"field"`
	Score        float32 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) > 0 {
		query = args[0]
	}

	deck, err := openDeck(cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	hits, err := deck.Hits(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchLimit > 0 && len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []model.Hit) error {
	out := make([]searchResult, len(hits))
	for i, h := range hits {
		out[i] = searchResult{
			ID:           h.Item.ID,
			Name:         h.Item.Name,
			SecondaryKey: h.Item.SecondaryKey,
			SourcePath:   h.Item.SourcePath,
			Kind:         h.Kind.String(),
			Field:        h.Field.String(),
			Score:        h.Score,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []model.Hit) error {
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No applications found.")
		return nil
	}

	width := 0
	for _, h := range hits {
		width = max(width, len(h.Item.Name))
	}

	for i, h := range hits {
		line := fmt.Sprintf("  [%d] %-*s", i+1, width, h.Item.Name)
		if h.Item.SecondaryKey != "" {
			line += "  " + h.Item.SecondaryKey
		}
		if searchDetails && h.Kind != model.MatchNone {
			line += fmt.Sprintf("  %s/%s %.2f", h.Kind, h.Field, h.Score)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(line, " "))
	}
	return nil
}
