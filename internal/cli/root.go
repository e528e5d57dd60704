// Package cli implements the appdeck command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/appdeck"
	"github.com/hupe1980/appdeck/config"
)

var version = "dev"

var (
	cfgFile string
	verbose bool
	roots   []string

	// deckOptions are appended to the options derived from the
	// configuration file. Tests use it to inject items and renderers.
	deckOptions []appdeck.Option
)

var rootCmd = &cobra.Command{
	Use:   "appdeck",
	Short: "Search installed applications and render their icons",
	Long: `appdeck scans application directories, ranks applications against a
typed query, and renders icon textures for a launcher front end.

  appdeck search saf
  appdeck icon com.apple.Safari --size 128 --out safari.png`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/appdeck/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringSliceVar(&roots, "root", nil, "application directory to scan (repeatable, overrides the config)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if len(roots) > 0 {
		cfg.Scan.Roots = roots
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.LogConfig) (*appdeck.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	if strings.EqualFold(cfg.Format, "json") {
		return appdeck.NewJSONLoggerTo(cmd.ErrOrStderr(), level), nil
	}
	return appdeck.NewTextLoggerTo(cmd.ErrOrStderr(), level), nil
}

// openDeck builds a Deck from the configuration file and flags.
func openDeck(cmd *cobra.Command, extra ...appdeck.Option) (*appdeck.Deck, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg.Log)
	if err != nil {
		return nil, err
	}

	opts := []appdeck.Option{
		appdeck.WithConfig(cfg),
		appdeck.WithLogger(logger),
		// Only the watch command watches, in the foreground.
		appdeck.WithWatch(false),
	}
	opts = append(opts, extra...)
	opts = append(opts, deckOptions...)

	deck, err := appdeck.Open(cmd.Context(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}
	return deck, nil
}
