package logging

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFile_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.Local)
	f := NewDailyFile(dir, "bot", func() time.Time { return now })
	defer f.Close()

	_, err := f.Write([]byte("first\n"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	day1, err := os.ReadFile(f.Path("20240501"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(day1))

	day2, err := os.ReadFile(f.Path("20240502"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(day2))
}

func TestDailyFile_ReportsCloseErrorOnRotate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.Local)
	f := NewDailyFile(dir, "bot", func() time.Time { return now })
	defer f.Close()
	var errOut bytes.Buffer
	f.errOut = &errOut

	_, err := f.Write([]byte("first\n"))
	require.NoError(t, err)
	// a second Close on the same *os.File fails with os.ErrClosed
	require.NoError(t, f.file.Close())

	now = now.Add(2 * time.Minute)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	assert.Contains(t, errOut.String(), "bot_20240501.log")
	assert.Contains(t, errOut.String(), "file already closed")

	data, err := os.ReadFile(f.Path("20240502"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, LevelCritical, ParseLevel("critical"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestCritical_RendersLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{ReplaceAttr: replaceLevel}))

	Critical(logger, "generation timed out")

	assert.Contains(t, buf.String(), "level=CRITICAL")
	assert.Contains(t, buf.String(), "generation timed out")
}
