// Package runner drives a full count-and-rank job: it partitions the corpus,
// fans out one worker per partition against the shared counting table, joins
// them all, and ranks the final snapshot.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erodriguezln/keyrank/internal/corpus"
	"github.com/erodriguezln/keyrank/internal/counter"
	"github.com/erodriguezln/keyrank/internal/partition"
	"github.com/erodriguezln/keyrank/internal/ranking"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

// Result is the outcome of one completed job.
type Result struct {
	// Entries is the ranked snapshot: count descending, key ascending on ties.
	Entries      []counter.Entry
	TotalLines   int
	DistinctKeys int
	Workers      int
	Duration     time.Duration
}

// Runner executes jobs against a corpus reader. It is stateless across runs;
// each Run builds and discards its own counting table.
type Runner struct {
	reader *corpus.Reader
	logger *slog.Logger
}

// New creates a Runner on top of the given corpus reader.
func New(reader *corpus.Reader) *Runner {
	return &Runner{
		reader: reader,
		logger: slog.Default().With("component", "runner"),
	}
}

// Run counts keys in the corpus at path using the given number of workers
// and returns the ranked result.
//
// The worker count is validated before any table or goroutine exists. Every
// worker is joined even when one fails; on any worker failure the first
// error is returned and no ranking is produced. Bumps issued before a
// failure stay in the discarded table — partial effects are accepted, there
// is no rollback.
func (r *Runner) Run(ctx context.Context, path string, workers int) (*Result, error) {
	start := time.Now()

	// Once workers launch they run to completion; cancellation is only
	// honored up front.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", apperrors.ErrConfiguration, workers)
	}

	totalLines, err := r.reader.CountLines(path)
	if err != nil {
		return nil, err
	}

	ranges, err := partition.Split(totalLines, workers)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("corpus partitioned",
		"path", path,
		"total_lines", totalLines,
		"workers", workers,
	)

	// Capacity equals the corpus line count, the upper bound on distinct keys.
	table := counter.NewTable(totalLines)

	var g errgroup.Group
	for i, rng := range ranges {
		i, rng := i, rng
		g.Go(func() error {
			if rng.Empty() {
				return nil
			}
			keys, err := r.reader.ReadKeys(path, rng.Start, rng.End)
			if err != nil {
				return fmt.Errorf("worker %d, lines [%d,%d): %w", i, rng.Start, rng.End, err)
			}
			for _, key := range keys {
				table.BumpOrInsert(key)
			}
			return nil
		})
	}

	// Full barrier: Wait joins every worker before returning, so a failed
	// worker never leaks a goroutine past this point.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Debug("workers joined", "path", path)

	entries := ranking.Rank(table.Snapshot())

	result := &Result{
		Entries:      entries,
		TotalLines:   totalLines,
		DistinctKeys: table.Len(),
		Workers:      workers,
		Duration:     time.Since(start),
	}
	r.logger.Info("job complete",
		"path", path,
		"total_lines", result.TotalLines,
		"distinct_keys", result.DistinctKeys,
		"workers", workers,
		"duration", result.Duration,
	)
	return result, nil
}
