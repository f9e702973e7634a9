package queue

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, title, status, requested_scenes, scene_count, run_dir, script_path, video_path, script_source, fallback_stages, error_kind, error_message, progress_stage, progress_percent, progress_message, approved_at, created_at, updated_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id              int64
		title           string
		statusStr       string
		requestedScenes sql.NullInt64
		sceneCount      sql.NullInt64
		runDir          sql.NullString
		scriptPath      sql.NullString
		videoPath       sql.NullString
		scriptSource    sql.NullString
		fallbackStages  sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		approvedRaw     sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&statusStr,
		&requestedScenes,
		&sceneCount,
		&runDir,
		&scriptPath,
		&videoPath,
		&scriptSource,
		&fallbackStages,
		&errorKind,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&approvedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:              id,
		Title:           title,
		Status:          Status(statusStr),
		RequestedScenes: int(requestedScenes.Int64),
		SceneCount:      int(sceneCount.Int64),
		RunDir:          runDir.String,
		ScriptPath:      scriptPath.String,
		VideoPath:       videoPath.String,
		ScriptSource:    scriptSource.String,
		FallbackStages:  fallbackStages.String,
		ErrorKind:       errorKind.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if approvedRaw.Valid {
		if approved, err := parseTimeString(approvedRaw.String); err == nil {
			run.ApprovedAt = &approved
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
