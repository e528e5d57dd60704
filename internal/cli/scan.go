package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List discovered applications",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "output items as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	deck, err := openDeck(cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	items := deck.Items()
	if scanJSON {
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, it := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", it.Name, it.ID, it.SourcePath)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d applications\n", len(items))
	return nil
}
