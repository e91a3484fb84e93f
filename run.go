// Package onebrc computes per-key min/mean/max over huge delimited text
// files by splitting the file into line-aligned byte ranges, parsing and
// aggregating each range in its own task, and merging the partition
// results once at the end.
package onebrc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"
)

// ErrNoInput reports a file that could not be opened or described, as
// opposed to one that is legitimately empty.
var ErrNoInput = errors.New("input file missing or unreadable")

type phase int

const (
	phaseIdle phase = iota
	phasePartitioning
	phaseDispatched
	phaseMerging
	phaseReporting
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phasePartitioning:
		return "partitioning"
	case phaseDispatched:
		return "dispatched"
	case phaseMerging:
		return "merging"
	case phaseReporting:
		return "reporting"
	case phaseDone:
		return "done"
	case phaseFailed:
		return "failed"
	}
	return "unknown"
}

// Run executes the whole pipeline and returns the final report. The first
// task failure cancels the remaining tasks, discards every partial result
// and fails the run; a partial report is never produced. An empty file
// yields an empty report, not an error.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	r := &runner{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("run_id", uuid.NewString())),
	}
	return r.run(ctx)
}

type runner struct {
	cfg    Config
	logger *slog.Logger
	phase  phase
}

func (r *runner) to(ctx context.Context, p phase) {
	r.phase = p
	r.logger.LogAttrs(ctx, slog.LevelDebug, "phase change",
		slog.String("phase", p.String()))
}

func (r *runner) run(ctx context.Context) (*Report, error) {
	started := time.Now()

	src, size, closeSrc, err := r.openSource()
	if err != nil {
		r.to(ctx, phaseFailed)
		return nil, err
	}
	defer closeSrc()

	r.to(ctx, phasePartitioning)
	ranges, err := Partition(src, size, r.cfg.Workers, r.cfg.ScanWindow)
	if err != nil {
		r.to(ctx, phaseFailed)
		return nil, fmt.Errorf("partition %s: %w", r.cfg.Path, err)
	}

	r.to(ctx, phaseDispatched)
	results := make([]*PartitionResult, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, rng := range ranges {
		i, rng := i, rng
		g.Go(func() error {
			res, err := r.runPartition(gctx, src, rng)
			if err != nil {
				return fmt.Errorf("range [%d, %d] of %s: %w",
					rng.Start, rng.End, r.cfg.Path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.to(ctx, phaseFailed)
		return nil, err
	}

	r.to(ctx, phaseMerging)
	global := NewAggregate()
	var rows uint64
	for _, res := range results {
		rows += res.Rows
		global.Merge(res.Agg)
	}

	r.to(ctx, phaseReporting)
	rep := BuildReport(global)
	r.to(ctx, phaseDone)

	r.logger.LogAttrs(ctx, slog.LevelInfo, "run complete",
		slog.Uint64("rows", rows),
		slog.Int("keys", rep.Len()),
		slog.Int("partitions", len(ranges)),
		slog.Duration("elapsed", time.Since(started)))
	return rep, nil
}

// openSource opens the input either as a plain file or as a shared memory
// mapping. The plain file is only read sequentially (partition scans); the
// parse phase opens its own descriptor per task. The mapping is safe for
// concurrent ReadAt and is shared by every task.
func (r *runner) openSource() (io.ReaderAt, int64, func(), error) {
	if r.cfg.MMap {
		m, err := mmap.Open(r.cfg.Path)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("%w: %s: %v", ErrNoInput, r.cfg.Path, err)
		}
		return m, int64(m.Len()), func() { m.Close() }, nil
	}
	f, err := os.Open(r.cfg.Path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%w: %s: %v", ErrNoInput, r.cfg.Path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, fmt.Errorf("%w: %s: %v", ErrNoInput, r.cfg.Path, err)
	}
	return f, fi.Size(), func() { f.Close() }, nil
}

// runPartition fuses the parser and the partition aggregator over one
// range. Without mmap each task opens its own descriptor so there is no
// contention on a shared file cursor.
func (r *runner) runPartition(ctx context.Context, shared io.ReaderAt, rng ByteRange) (*PartitionResult, error) {
	started := time.Now()

	src := shared
	if !r.cfg.MMap {
		f, err := os.Open(r.cfg.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		adviseSequential(f)
		src = f
	}

	agg := NewAggregate()
	p := newParser(src, rng, r.cfg.Sep, r.cfg.BufferSize)
	rows, err := p.drain(ctx, agg)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	r.logger.LogAttrs(ctx, slog.LevelDebug, "partition done",
		slog.Int64("start", rng.Start),
		slog.Int64("end", rng.End),
		slog.Uint64("rows", rows),
		slog.Duration("elapsed", elapsed))
	return &PartitionResult{Rows: rows, Elapsed: elapsed, Agg: agg}, nil
}
