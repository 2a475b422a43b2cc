// Package service wraps the counting engine for long-running use: it accepts
// tally jobs over HTTP or Kafka, serves cached reports, persists ranked
// snapshots, and records metrics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/erodriguezln/keyrank/internal/report"
	"github.com/erodriguezln/keyrank/internal/runner"
	"github.com/erodriguezln/keyrank/internal/store"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
	"github.com/erodriguezln/keyrank/pkg/metrics"
	"github.com/erodriguezln/keyrank/pkg/resilience"
)

// JobRequest asks for one corpus to be counted and ranked. A zero Workers
// falls back to the configured default.
type JobRequest struct {
	JobID      string `json:"job_id"`
	CorpusPath string `json:"corpus_path"`
	Workers    int    `json:"workers"`
}

// JobResult reports the outcome of a job. When the report was served from
// cache the line and key counts are zero; Cached marks that case.
type JobResult struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	CorpusPath   string    `json:"corpus_path"`
	Workers      int       `json:"workers"`
	TotalLines   int       `json:"total_lines"`
	DistinctKeys int       `json:"distinct_keys"`
	DurationMs   int64     `json:"duration_ms"`
	Cached       bool      `json:"cached"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Engine runs count-and-rank jobs. *runner.Runner implements it.
type Engine interface {
	Run(ctx context.Context, path string, workers int) (*runner.Result, error)
}

// SnapshotStore persists ranked snapshots. *store.Store implements it.
type SnapshotStore interface {
	Save(ctx context.Context, snap store.Snapshot) error
	Latest(ctx context.Context) (*store.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.Snapshot, error)
}

// ReportCache caches rendered reports. *reportcache.Cache implements it.
type ReportCache interface {
	GetOrCompute(ctx context.Context, corpusPath string, workers int, computeFn func() (string, error)) (string, bool, error)
}

// Deps are the collaborators a Service is built from. Store, Cache, and
// Metrics may be nil; the service degrades to running jobs without
// persistence, caching, or instrumentation.
type Deps struct {
	Engine         Engine
	Store          SnapshotStore
	Cache          ReportCache
	Metrics        *metrics.Metrics
	DefaultWorkers int
}

// Service executes tally jobs against its collaborators.
type Service struct {
	engine         Engine
	store          SnapshotStore
	cache          ReportCache
	metrics        *metrics.Metrics
	breaker        *resilience.CircuitBreaker
	defaultWorkers int
	logger         *slog.Logger
}

// New creates a Service.
func New(deps Deps) *Service {
	defaultWorkers := deps.DefaultWorkers
	if defaultWorkers <= 0 {
		defaultWorkers = 4
	}
	return &Service{
		engine:         deps.Engine,
		store:          deps.Store,
		cache:          deps.Cache,
		metrics:        deps.Metrics,
		breaker:        resilience.NewCircuitBreaker("snapshot-store", resilience.CircuitBreakerConfig{}),
		defaultWorkers: defaultWorkers,
		logger:         slog.Default().With("component", "tally-service"),
	}
}

// Execute runs one job and returns its result alongside the rendered report
// text. Duplicate concurrent jobs for the same corpus and worker count share
// a single engine run through the report cache.
func (s *Service) Execute(ctx context.Context, req JobRequest) (JobResult, string, error) {
	workers := req.Workers
	if workers == 0 {
		workers = s.defaultWorkers
	}

	var res *runner.Result
	compute := func() (string, error) {
		r, err := s.engine.Run(ctx, req.CorpusPath, workers)
		if err != nil {
			return "", err
		}
		res = r
		s.record(r)
		s.persist(ctx, req.CorpusPath, r)
		return report.Render(r.Entries), nil
	}

	var (
		reportText string
		cached     bool
		err        error
	)
	if s.cache != nil {
		reportText, cached, err = s.cache.GetOrCompute(ctx, req.CorpusPath, workers, compute)
	} else {
		reportText, err = compute()
	}

	result := JobResult{
		JobID:      req.JobID,
		CorpusPath: req.CorpusPath,
		Workers:    workers,
		Cached:     cached,
		Timestamp:  time.Now().UTC(),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		if s.metrics != nil {
			s.metrics.JobsTotal.WithLabelValues(statusLabel(err)).Inc()
		}
		return result, "", err
	}

	result.Status = "ok"
	if res != nil {
		result.TotalLines = res.TotalLines
		result.DistinctKeys = res.DistinctKeys
		result.DurationMs = res.Duration.Milliseconds()
	}
	if s.metrics != nil {
		s.metrics.JobsTotal.WithLabelValues("ok").Inc()
		if cached {
			s.metrics.ReportCacheHitsTotal.Inc()
		} else {
			s.metrics.ReportCacheMissTotal.Inc()
		}
	}
	return result, reportText, nil
}

// LatestSnapshot returns the most recent persisted snapshot.
func (s *Service) LatestSnapshot(ctx context.Context) (*store.Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Latest(ctx)
}

// ListSnapshots returns up to limit persisted snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]store.Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx, limit)
}

func (s *Service) record(r *runner.Result) {
	if s.metrics == nil {
		return
	}
	s.metrics.JobDuration.Observe(r.Duration.Seconds())
	s.metrics.JobWorkers.Observe(float64(r.Workers))
	s.metrics.LinesProcessedTotal.Add(float64(r.TotalLines))
	s.metrics.DistinctKeys.Set(float64(r.DistinctKeys))
}

// persist writes the snapshot behind a circuit breaker and a short timeout.
// Persistence failures degrade the service but do not fail the job.
func (s *Service) persist(ctx context.Context, corpusPath string, r *runner.Result) {
	if s.store == nil {
		return
	}
	snap := store.Snapshot{
		Corpus:       corpusPath,
		TotalLines:   r.TotalLines,
		DistinctKeys: r.DistinctKeys,
		Workers:      r.Workers,
		DurationMs:   r.Duration.Milliseconds(),
		Entries:      store.EntriesFromRanked(r.Entries),
		CapturedAt:   time.Now().UTC(),
	}
	err := s.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, 5*time.Second, "snapshot-save", func(ctx context.Context) error {
			return s.store.Save(ctx, snap)
		})
	})
	if err != nil {
		s.logger.Error("snapshot persistence failed", "corpus", corpusPath, "error", err)
		if s.metrics != nil {
			s.metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.SnapshotSavesTotal.WithLabelValues("ok").Inc()
	}
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		return "config_error"
	case errors.Is(err, apperrors.ErrResource):
		return "resource_error"
	default:
		return "error"
	}
}
