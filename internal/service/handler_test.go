package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(t *testing.T) (*Handler, *stubStore) {
	t.Helper()
	st := &stubStore{}
	svc := New(Deps{Engine: &stubEngine{result: okResult()}, Store: st, DefaultWorkers: 2})
	return NewHandler(svc), st
}

func TestRunJobHandler(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"job_id":"j1","corpus_path":"corpus.txt","workers":2}`))
	rec := httptest.NewRecorder()
	handler.RunJob(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp runJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.DistinctKeys != 2 {
		t.Errorf("response = %+v", resp.JobResult)
	}
	if !strings.Contains(resp.Report, "Messi") {
		t.Errorf("report missing rows:\n%s", resp.Report)
	}
}

func TestRunJobHandlerRejectsBadBody(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing corpus", `{"workers":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.RunJob(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLatestSnapshotHandler(t *testing.T) {
	handler, _ := newTestHandler(t)

	// Empty store: 404.
	rec := httptest.NewRecorder()
	handler.LatestSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	// Run a job, then the snapshot exists.
	runReq := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"corpus_path":"corpus.txt"}`))
	handler.RunJob(httptest.NewRecorder(), runReq)

	rec = httptest.NewRecorder()
	handler.LatestSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestListSnapshotsHandler(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ListSnapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty list body = %q, want []", body)
	}

	rec = httptest.NewRecorder()
	handler.ListSnapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}
