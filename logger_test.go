package appdeck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_JSON(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	l := NewJSONLoggerTo(&buf, slog.LevelDebug).WithGeneration(4)

	l.LogSearch(ctx, "saf", 1, time.Millisecond, nil)
	l.LogRescan(ctx, 4, 12, time.Second, nil)
	l.LogPreheat(ctx, PreheatStats{Requested: 2, Failed: 1})
	l.LogWatch(ctx, []string{"/Applications"}, errors.New("inotify limit"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "search completed", lines[0]["msg"])
	assert.Equal(t, "saf", lines[0]["query"])
	assert.EqualValues(t, 4, lines[0]["generation"])

	assert.Equal(t, "INFO", lines[1]["level"])
	assert.EqualValues(t, 12, lines[1]["items"])

	assert.Equal(t, "WARN", lines[2]["level"])
	assert.EqualValues(t, 1, lines[2]["failed"])

	assert.Equal(t, "ERROR", lines[3]["level"])
	assert.Equal(t, "inotify limit", lines[3]["error"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLoggerTo(&buf, slog.LevelInfo)

	l.LogSearch(context.Background(), "saf", 1, time.Millisecond, nil)
	assert.Empty(t, buf.String())

	l.LogSearch(context.Background(), "saf", 0, 0, context.Canceled)
	assert.Contains(t, buf.String(), "search aborted")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() {
		l.LogRescan(context.Background(), 1, 0, 0, errors.New("x"))
	})
}
