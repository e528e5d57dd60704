package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	iconSize int
	iconOut  string
)

var iconCmd = &cobra.Command{
	Use:   "icon [identity]",
	Short: "Render an application icon to a PNG file",
	Long: `Renders the icon texture for an application identity, as listed by the
scan command, and writes it as PNG. Applications without a resolvable icon
produce a placeholder.`,
	Args: cobra.ExactArgs(1),
	RunE: runIcon,
}

func init() {
	iconCmd.Flags().IntVarP(&iconSize, "size", "s", 0, "texture edge length in pixels (default from config)")
	iconCmd.Flags().StringVarP(&iconOut, "out", "o", "", "output file (default <identity>.png)")
	rootCmd.AddCommand(iconCmd)
}

func runIcon(cmd *cobra.Command, args []string) error {
	identity := args[0]

	deck, err := openDeck(cmd)
	if err != nil {
		return err
	}
	defer deck.Close()

	tex, err := deck.Icon(cmd.Context(), identity, iconSize)
	if err != nil {
		return fmt.Errorf("failed to render icon: %w", err)
	}

	out := iconOut
	if out == "" {
		out = outputName(identity)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := png.Encode(f, tex.Image); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	kind := "icon"
	if tex.Placeholder {
		kind = "placeholder"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s %dx%d (%s)\n", out, tex.Size, tex.Size, kind)
	return nil
}

// outputName derives a file name from an identity, which may be a path.
func outputName(identity string) string {
	name := strings.TrimSuffix(filepath.Base(identity), ".app")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "icon"
	}
	return name + ".png"
}
