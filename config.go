package onebrc

import (
	"io"
	"log/slog"
	"runtime"
)

const (
	// DefaultSep is the byte separating the key field from the value field.
	DefaultSep = ';'

	// DefaultBufferSize is the per-task read buffer size.
	DefaultBufferSize = 1 << 19

	// DefaultScanWindow bounds each read the partitioner issues while
	// searching for a newline near a tentative cut.
	DefaultScanWindow = 1 << 20
)

// Config is everything a run consumes. The zero value of every field except
// Path is usable; Run fills in defaults.
type Config struct {
	// Path is the input file. One record per line, key<sep>value.
	Path string

	// Workers is the number of parallel tasks. Defaults to the number of
	// CPUs. The file may still be split into fewer ranges than this if it
	// has fewer lines.
	Workers int

	// Sep is the field separator byte. Defaults to ';'.
	Sep byte

	// BufferSize is the size of each task's read buffer.
	BufferSize int

	// ScanWindow is the partitioner's newline-scan window size.
	ScanWindow int

	// MMap reads through a single shared memory mapping instead of one
	// file descriptor per task.
	MMap bool

	// Logger receives debug records around phase transitions and
	// per-partition timings. Defaults to a discarding logger.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Sep == 0 {
		c.Sep = DefaultSep
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ScanWindow <= 0 {
		c.ScanWindow = DefaultScanWindow
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
