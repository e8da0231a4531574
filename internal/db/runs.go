package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/flowstats"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded flow estimation.
type Run struct {
	ID        string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Method    flow.Method       `json:"method"`
	PrevPath  string            `json:"prev_path,omitempty"`
	NextPath  string            `json:"next_path,omitempty"`
	Params    flow.Params       `json:"params"`
	Summary   flowstats.Summary `json:"summary"`
	Duration  time.Duration     `json:"duration_ns"`
}

// RecordRun stores r, assigning a new ID and creation time. The stored
// copy is returned.
func (db *DB) RecordRun(ctx context.Context, r Run) (Run, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = db.clock.Now().UTC()

	paramsJSON, err := json.Marshal(r.Params)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode params: %w", err)
	}
	summaryJSON, err := json.Marshal(r.Summary)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO flow_runs (
			run_id, created_at, method, prev_path, next_path, width, height,
			params_json, summary_json, mean_magnitude, max_magnitude, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UnixNano(), string(r.Method), r.PrevPath, r.NextPath,
		r.Summary.Width, r.Summary.Height, string(paramsJSON), string(summaryJSON),
		r.Summary.MeanMagnitude, r.Summary.MaxMagnitude, int64(r.Duration),
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	return r, nil
}

const runColumns = `run_id, created_at, method, prev_path, next_path, params_json, summary_json, duration_ns`

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all
// runs. An empty method matches every method.
func (db *DB) ListRuns(ctx context.Context, method flow.Method, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM flow_runs`
	var args []any
	if method != "" {
		query += ` WHERE method = ?`
		args = append(args, string(method))
	}
	query += ` ORDER BY created_at DESC, run_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID or ErrRunNotFound.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM flow_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r           Run
		method      string
		createdAt   int64
		durationNS  int64
		paramsJSON  string
		summaryJSON string
	)
	if err := s.Scan(&r.ID, &createdAt, &method, &r.PrevPath, &r.NextPath, &paramsJSON, &summaryJSON, &durationNS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Method = flow.Method(method)
	r.Duration = time.Duration(durationNS)
	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return Run{}, fmt.Errorf("failed to decode params of run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return Run{}, fmt.Errorf("failed to decode summary of run %s: %w", r.ID, err)
	}
	return r, nil
}
