package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewRun inserts a run for a freshly submitted story.
func (s *Store) NewRun(ctx context.Context, title string, requestedScenes int) (*Run, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            title, status, requested_scenes, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		title,
		StatusDrafting,
		requestedScenes,
		timestamp,
		timestamp,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a run by identifier. A missing run yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET
            title = ?, status = ?, requested_scenes = ?, scene_count = ?,
            run_dir = ?, script_path = ?, video_path = ?, script_source = ?,
            fallback_stages = ?, error_kind = ?, error_message = ?,
            progress_stage = ?, progress_percent = ?, progress_message = ?,
            approved_at = ?, updated_at = ?
        WHERE id = ?`,
		run.Title,
		run.Status,
		run.RequestedScenes,
		run.SceneCount,
		nullableString(run.RunDir),
		nullableString(run.ScriptPath),
		nullableString(run.VideoPath),
		nullableString(run.ScriptSource),
		nullableString(run.FallbackStages),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableString(run.ProgressStage),
		run.ProgressPercent,
		nullableString(run.ProgressMessage),
		nullableTime(run.ApprovedAt),
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Transition moves a run to a new status after validating the edge.
func (s *Store) Transition(ctx context.Context, run *Run, to Status) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if !ValidTransition(run.Status, to) {
		return fmt.Errorf("invalid transition %s -> %s for run %d", run.Status, to, run.ID)
	}
	run.Status = to
	return s.Update(ctx, run)
}

// List returns runs ordered by identifier, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
