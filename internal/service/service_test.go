package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erodriguezln/keyrank/internal/counter"
	"github.com/erodriguezln/keyrank/internal/runner"
	"github.com/erodriguezln/keyrank/internal/store"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

type stubEngine struct {
	result *runner.Result
	err    error
	calls  int
}

func (e *stubEngine) Run(ctx context.Context, path string, workers int) (*runner.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	res := *e.result
	res.Workers = workers
	return &res, nil
}

type stubStore struct {
	mu    sync.Mutex
	saved []store.Snapshot
	err   error
}

func (s *stubStore) Save(ctx context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *stubStore) Latest(ctx context.Context) (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil, nil
	}
	snap := s.saved[len(s.saved)-1]
	return &snap, nil
}

func (s *stubStore) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.saved) {
		limit = len(s.saved)
	}
	return s.saved[:limit], nil
}

func okResult() *runner.Result {
	return &runner.Result{
		Entries: []counter.Entry{
			{Key: "Messi", Count: 2},
			{Key: "Ronaldo", Count: 1},
		},
		TotalLines:   3,
		DistinctKeys: 2,
		Duration:     5 * time.Millisecond,
	}
}

func TestExecute(t *testing.T) {
	engine := &stubEngine{result: okResult()}
	st := &stubStore{}
	svc := New(Deps{Engine: engine, Store: st, DefaultWorkers: 4})

	result, reportText, err := svc.Execute(context.Background(), JobRequest{
		JobID:      "job-1",
		CorpusPath: "corpus.txt",
		Workers:    2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != "ok" {
		t.Errorf("status = %q, want ok", result.Status)
	}
	if result.TotalLines != 3 || result.DistinctKeys != 2 {
		t.Errorf("result = %+v", result)
	}
	if result.Workers != 2 {
		t.Errorf("workers = %d, want 2", result.Workers)
	}
	if !strings.Contains(reportText, "Messi") {
		t.Errorf("report missing entries:\n%s", reportText)
	}
	if len(st.saved) != 1 {
		t.Fatalf("saved %d snapshots, want 1", len(st.saved))
	}
	if st.saved[0].Corpus != "corpus.txt" {
		t.Errorf("snapshot corpus = %q", st.saved[0].Corpus)
	}
}

func TestExecuteDefaultsWorkers(t *testing.T) {
	engine := &stubEngine{result: okResult()}
	svc := New(Deps{Engine: engine, DefaultWorkers: 7})

	result, _, err := svc.Execute(context.Background(), JobRequest{CorpusPath: "corpus.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Workers != 7 {
		t.Errorf("workers = %d, want default 7", result.Workers)
	}
}

func TestExecutePropagatesEngineError(t *testing.T) {
	want := fmt.Errorf("%w: no such corpus", apperrors.ErrResource)
	engine := &stubEngine{err: want}
	svc := New(Deps{Engine: engine})

	result, _, err := svc.Execute(context.Background(), JobRequest{CorpusPath: "gone.txt"})
	if !errors.Is(err, apperrors.ErrResource) {
		t.Fatalf("error = %v, want ErrResource", err)
	}
	if result.Status != "error" || result.Error == "" {
		t.Errorf("result = %+v, want error status with message", result)
	}
}

// A failing snapshot store degrades persistence but must not fail the job.
func TestExecuteSurvivesStoreFailure(t *testing.T) {
	engine := &stubEngine{result: okResult()}
	st := &stubStore{err: errors.New("postgres down")}
	svc := New(Deps{Engine: engine, Store: st})

	result, _, err := svc.Execute(context.Background(), JobRequest{CorpusPath: "corpus.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != "ok" {
		t.Errorf("status = %q, want ok despite store failure", result.Status)
	}
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]string
}

func (c *mapCache) GetOrCompute(ctx context.Context, corpusPath string, workers int, computeFn func() (string, error)) (string, bool, error) {
	key := fmt.Sprintf("%s:%d", corpusPath, workers)
	c.mu.Lock()
	if v, ok := c.items[key]; ok {
		c.mu.Unlock()
		return v, true, nil
	}
	c.mu.Unlock()
	v, err := computeFn()
	if err != nil {
		return "", false, err
	}
	c.mu.Lock()
	c.items[key] = v
	c.mu.Unlock()
	return v, false, nil
}

func TestExecuteUsesCache(t *testing.T) {
	engine := &stubEngine{result: okResult()}
	svc := New(Deps{Engine: engine, Cache: &mapCache{items: make(map[string]string)}})

	req := JobRequest{CorpusPath: "corpus.txt", Workers: 2}
	first, _, err := svc.Execute(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := svc.Execute(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if first.Cached {
		t.Error("first run marked cached")
	}
	if !second.Cached {
		t.Error("second run not served from cache")
	}
	if engine.calls != 1 {
		t.Errorf("engine ran %d times, want 1", engine.calls)
	}
}
