// Package store persists ranked snapshots to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/erodriguezln/keyrank/internal/counter"
	"github.com/erodriguezln/keyrank/pkg/postgres"
)

// RankedEntry is one row of a persisted snapshot.
type RankedEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Snapshot is the persisted form of one completed tally job.
type Snapshot struct {
	Corpus       string        `json:"corpus"`
	TotalLines   int           `json:"total_lines"`
	DistinctKeys int           `json:"distinct_keys"`
	Workers      int           `json:"workers"`
	DurationMs   int64         `json:"duration_ms"`
	Entries      []RankedEntry `json:"entries"`
	CapturedAt   time.Time     `json:"captured_at"`
}

// EntriesFromRanked converts counter entries into their persisted form.
func EntriesFromRanked(entries []counter.Entry) []RankedEntry {
	out := make([]RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = RankedEntry{Key: e.Key, Count: e.Count}
	}
	return out
}

// Store persists snapshots in PostgreSQL.
//
// It requires a `tally_snapshots` table:
//
//	CREATE TABLE tally_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    corpus      TEXT NOT NULL,
//	    data        JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a snapshot store.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "snapshot-store"),
	}
}

// retainPerCorpus bounds how many snapshots are kept per corpus; older rows
// are pruned in the same transaction as the insert.
const retainPerCorpus = 50

// Save persists one snapshot and prunes rows beyond the retention bound.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tally_snapshots (corpus, data, captured_at) VALUES ($1, $2, $3)`,
			snap.Corpus, data, snap.CapturedAt,
		); err != nil {
			return fmt.Errorf("inserting snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tally_snapshots
			 WHERE corpus = $1 AND id NOT IN (
			     SELECT id FROM tally_snapshots
			     WHERE corpus = $1
			     ORDER BY captured_at DESC
			     LIMIT $2
			 )`,
			snap.Corpus, retainPerCorpus,
		); err != nil {
			return fmt.Errorf("pruning old snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		"corpus", snap.Corpus,
		"distinct_keys", snap.DistinctKeys,
		"total_lines", snap.TotalLines,
	)
	return nil
}

// Latest loads the most recent snapshot. Returns nil, nil when no snapshot
// exists yet.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM tally_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

// List returns the last N snapshots, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM tally_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}
