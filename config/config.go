// Package config loads the appdeck TOML configuration file.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	[search]
//	cpu_threshold = 50
//	trusted_prefix = "com.apple."
//
//	[icons]
//	max_entries = 200
//	max_bytes = 52428800
//
//	[scan]
//	roots = ["/Applications"]
//	watch = true
//	debounce = "500ms"
//
//	[log]
//	level = "info"
//	format = "text"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/internal/cache"
	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/engine"
	"github.com/hupe1980/appdeck/internal/layout"
	"github.com/hupe1980/appdeck/internal/rescache"
	"github.com/hupe1980/appdeck/internal/score"
	"github.com/hupe1980/appdeck/scan"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the file configuration.
type Config struct {
	Search SearchConfig `toml:"search"`
	Icons  IconsConfig  `toml:"icons"`
	Scan   ScanConfig   `toml:"scan"`
	Log    LogConfig    `toml:"log"`
}

// SearchConfig holds search engine knobs.
type SearchConfig struct {
	CPUThreshold    int    `toml:"cpu_threshold"`
	MaxCacheEntries int    `toml:"max_cache_entries"`
	TrustedPrefix   string `toml:"trusted_prefix"`
	FieldCapacity   int    `toml:"field_capacity"`
	QueryCapacity   int    `toml:"query_capacity"`
	// Compute is one of auto, parallel, cpu.
	Compute string `toml:"compute"`
}

// IconsConfig holds icon cache knobs.
type IconsConfig struct {
	MaxEntries     int      `toml:"max_entries"`
	MaxBytes       int64    `toml:"max_bytes"`
	PreheatWorkers int      `toml:"preheat_workers"`
	RenderRate     float64  `toml:"render_rate"`
	DefaultSize    int      `toml:"default_size"`
	SearchDirs     []string `toml:"search_dirs"`
}

// ScanConfig holds application discovery knobs.
type ScanConfig struct {
	Roots    []string `toml:"roots"`
	MaxDepth int      `toml:"max_depth"`
	Watch    bool     `toml:"watch"`
	Debounce Duration `toml:"debounce"`
}

// LogConfig selects the log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// Duration is a time.Duration encoded as a Go duration string.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration for the current OS.
func Default() Config {
	return Config{
		Search: SearchConfig{
			CPUThreshold:    engine.DefaultCPUThreshold,
			MaxCacheEntries: rescache.DefaultMaxEntries,
			TrustedPrefix:   score.DefaultTrustedPrefix,
			FieldCapacity:   layout.DefaultFieldCapacity,
			QueryCapacity:   layout.DefaultQueryCapacity,
			Compute:         "auto",
		},
		Icons: IconsConfig{
			MaxEntries:     cache.DefaultMaxEntries,
			MaxBytes:       cache.DefaultMaxBytes,
			PreheatWorkers: cache.DefaultPreheatWorkers,
			DefaultSize:    icon.DefaultSize,
			SearchDirs:     defaultIconDirs(),
		},
		Scan: ScanConfig{
			Roots:    DefaultRoots(),
			MaxDepth: scan.DefaultMaxDepth,
			Debounce: Duration(scan.DefaultDebounce),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultRoots returns the conventional application directories.
func DefaultRoots() []string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		roots := []string{"/Applications", "/System/Applications"}
		if home != "" {
			roots = append(roots, filepath.Join(home, "Applications"))
		}
		return roots
	case "linux", "freebsd", "openbsd", "netbsd":
		roots := []string{
			"/usr/share/applications",
			"/usr/local/share/applications",
			"/var/lib/flatpak/exports/share/applications",
		}
		if home != "" {
			roots = append(roots, filepath.Join(home, ".local", "share", "applications"))
		}
		return roots
	default:
		return nil
	}
}

func defaultIconDirs() []string {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"/usr/share/pixmaps"}
	default:
		return nil
	}
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "appdeck", "config.toml"), nil
}

// Load reads the file at path over Default and validates the result.
// An empty path loads DefaultPath if it exists and Default otherwise.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays the TOML document data onto cfg and validates it.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return err
	}
	return cfg.Validate()
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks every knob and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Search.CPUThreshold < 0 {
		bad("search.cpu_threshold must be >= 0, got %d", c.Search.CPUThreshold)
	}
	if c.Search.MaxCacheEntries <= 0 {
		bad("search.max_cache_entries must be > 0, got %d", c.Search.MaxCacheEntries)
	}
	if c.Search.FieldCapacity < 2 {
		bad("search.field_capacity must be >= 2, got %d", c.Search.FieldCapacity)
	}
	if c.Search.QueryCapacity < 2 {
		bad("search.query_capacity must be >= 2, got %d", c.Search.QueryCapacity)
	}
	if _, ok := compute.ParseMode(c.Search.Compute); !ok {
		bad("search.compute must be auto, parallel or cpu, got %q", c.Search.Compute)
	}

	if c.Icons.MaxEntries <= 0 {
		bad("icons.max_entries must be > 0, got %d", c.Icons.MaxEntries)
	}
	if c.Icons.MaxBytes <= 0 {
		bad("icons.max_bytes must be > 0, got %d", c.Icons.MaxBytes)
	}
	if c.Icons.PreheatWorkers <= 0 {
		bad("icons.preheat_workers must be > 0, got %d", c.Icons.PreheatWorkers)
	}
	if c.Icons.RenderRate < 0 {
		bad("icons.render_rate must be >= 0, got %g", c.Icons.RenderRate)
	}
	if c.Icons.DefaultSize <= 0 {
		bad("icons.default_size must be > 0, got %d", c.Icons.DefaultSize)
	}

	if c.Scan.MaxDepth < 0 {
		bad("scan.max_depth must be >= 0, got %d", c.Scan.MaxDepth)
	}
	if c.Scan.Debounce < 0 {
		bad("scan.debounce must be >= 0, got %s", c.Scan.Debounce.Std())
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		bad("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		bad("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// ComputeMode returns the parsed search.compute value.
func (c SearchConfig) ComputeMode() compute.Mode {
	m, _ := compute.ParseMode(c.Compute)
	return m
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", l.Level)
	}
	return lvl, nil
}
