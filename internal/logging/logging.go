// Package logging builds the process logger: slog text output to a file that
// rolls over at local midnight, mirrored to stderr.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelCritical sits above slog.LevelError
const LevelCritical = slog.Level(12)

// Config holds logger settings
type Config struct {
	Dir      string // empty disables the file output
	FileBase string
	Level    string // debug, info, warning, error, critical
	Stderr   bool
}

// New creates the logger. The returned closer releases the current log file.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var writers []io.Writer
	var file *DailyFile

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file = NewDailyFile(cfg.Dir, cfg.FileBase, nil)
		writers = append(writers, file)
	}
	if cfg.Stderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: replaceLevel,
	})

	var closer io.Closer = nopCloser{}
	if file != nil {
		closer = file
	}
	return slog.New(handler), closer, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// Critical logs at LevelCritical
func Critical(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelCritical, msg, args...)
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// DailyFile is an io.Writer appending to <dir>/<base>_YYYYMMDD.log,
// switching files when the local date changes
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	base string
	now  func() time.Time

	// errOut receives failures that cannot go through the log itself
	errOut io.Writer

	day  string
	file *os.File
}

// NewDailyFile creates a daily file writer. The file is opened on first write.
func NewDailyFile(dir, base string, now func() time.Time) *DailyFile {
	if base == "" {
		base = "bridge"
	}
	if now == nil {
		now = time.Now
	}
	return &DailyFile{dir: dir, base: base, now: now, errOut: os.Stderr}
}

// Write implements io.Writer
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	day := d.now().Format("20060102")
	if d.file == nil || day != d.day {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// Path returns the file path for a given day
func (d *DailyFile) Path(day string) string {
	return filepath.Join(d.dir, d.base+"_"+day+".log")
}

func (d *DailyFile) rotate(day string) error {
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			fmt.Fprintf(d.errOut, "logging: failed to close %s: %v\n", d.Path(d.day), err)
		}
		d.file = nil
	}
	f, err := os.OpenFile(d.Path(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	d.file = f
	d.day = day
	return nil
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
