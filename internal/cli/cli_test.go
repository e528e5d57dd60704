package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/appdeck"
	"github.com/hupe1980/appdeck/icon"
	"github.com/hupe1980/appdeck/testutil"
)

// setupTestDeck points the commands at a fixed item list and an empty
// config directory.
func setupTestDeck(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDECK_COMPUTE", "")

	deckOptions = []appdeck.Option{
		appdeck.WithItems(testutil.LauncherItems()),
		appdeck.WithComputeMode("cpu"),
		appdeck.WithRenderer(icon.RendererFunc(func(_ context.Context, id string, size int) (image.Image, error) {
			if id == "com.apple.Pages" {
				return nil, icon.ErrNoIcon
			}
			return image.NewRGBA(image.Rect(0, 0, size, size)), nil
		})),
	}
	t.Cleanup(func() {
		deckOptions = nil
		cfgFile = ""
		rootCmd.SetArgs(nil)
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf, logs := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(logs)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "appdeck", rootCmd.Use)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("root"))
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_Table(t *testing.T) {
	setupTestDeck(t)

	out, err := execute(t, "search", "--limit", "10", "--details=false", "--json=false", "pple")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Pages")
	assert.Contains(t, out, "[2] Xcode")
	assert.Contains(t, out, "[3] Safari")
}

func TestSearchCmd_Details(t *testing.T) {
	setupTestDeck(t)

	out, err := execute(t, "search", "--json=false", "--details", "saf")
	require.NoError(t, err)
	assert.Contains(t, out, "exact/name 107.80")
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestDeck(t)

	out, err := execute(t, "search", "--json=false", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No applications found.")
}

func TestSearchCmd_JSONWithLimit(t *testing.T) {
	setupTestDeck(t)

	out, err := execute(t, "search", "--json", "--limit", "2", "pple")
	require.NoError(t, err)

	var res []searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res, 2)
	assert.Equal(t, "Pages", res[0].Name)
	assert.Equal(t, "substring", res[0].Kind)
	assert.Equal(t, "secondaryKey", res[0].Field)
}

func TestSearchCmd_TooManyArgs(t *testing.T) {
	setupTestDeck(t)

	_, err := execute(t, "search", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestScanCmd(t *testing.T) {
	setupTestDeck(t)

	out, err := execute(t, "scan", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Safari\tcom.apple.Safari")
	assert.Contains(t, out, "3 applications")
}

func TestIconCmd_WritesPNG(t *testing.T) {
	setupTestDeck(t)
	out := filepath.Join(t.TempDir(), "safari.png")

	msg, err := execute(t, "icon", "--size", "32", "--out", out, "com.apple.Safari")
	require.NoError(t, err)
	assert.Contains(t, msg, "32x32 (icon)")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
}

func TestIconCmd_Placeholder(t *testing.T) {
	setupTestDeck(t)
	out := filepath.Join(t.TempDir(), "pages.png")

	msg, err := execute(t, "icon", "-s", "16", "-o", out, "com.apple.Pages")
	require.NoError(t, err)
	assert.Contains(t, msg, "(placeholder)")
}

func TestWatchCmd_RequiresDirectoryScanner(t *testing.T) {
	setupTestDeck(t)

	_, err := execute(t, "watch", "--metrics-addr", "", "--preheat=false")
	require.ErrorIs(t, err, appdeck.ErrNoScanner)
}

func TestConfigFlag_InvalidFile(t *testing.T) {
	setupTestDeck(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ncpu_threshold = -3\n"), 0o644))

	_, err := execute(t, "--config", path, "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "Safari.png", outputName("/Applications/Safari.app"))
	assert.Equal(t, "com.apple.Safari.png", outputName("com.apple.Safari"))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "appdeck version")
	assert.Contains(t, out, "compute:")
}
