package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erodriguezln/keyrank/internal/store"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
	"github.com/erodriguezln/keyrank/pkg/logger"
)

// Handler exposes the tally service over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates an HTTP handler around the service.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: slog.Default().With("component", "tally-handler"),
	}
}

type runJobResponse struct {
	JobResult
	Report string `json:"report"`
}

// RunJob handles POST /api/v1/jobs: it runs a tally inline and returns the
// result with the rendered report.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CorpusPath == "" {
		writeError(w, http.StatusBadRequest, "corpus_path is required")
		return
	}

	result, reportText, err := h.svc.Execute(r.Context(), req)
	if err != nil {
		logger.FromContext(r.Context()).Error("job failed",
			"corpus", req.CorpusPath,
			"error", err,
		)
		writeError(w, apperrors.HTTPStatusCode(err), result.Error)
		return
	}

	writeJSON(w, http.StatusOK, runJobResponse{JobResult: result, Report: reportText})
}

// LatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.LatestSnapshot(r.Context())
	if err != nil {
		h.logger.Error("loading latest snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "loading snapshot failed")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshots yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListSnapshots handles GET /api/v1/snapshots?limit=N.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snaps, err := h.svc.ListSnapshots(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing snapshots failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing snapshots failed")
		return
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
