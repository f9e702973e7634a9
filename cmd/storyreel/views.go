package main

import (
	"fmt"
	"strings"
	"time"

	"storyreel/internal/queue"
)

func buildStatusRows(stats map[queue.Status]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), fmt.Sprintf("%d", count)})
	}
	return rows
}

func buildRunRows(runs []*queue.Run) [][]string {
	if len(runs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", run.ID),
			run.Title,
			formatStatusLabel(string(run.Status)),
			formatSceneCount(run),
			formatProgress(run),
			formatDisplayTime(run.UpdatedAt),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatSceneCount(run *queue.Run) string {
	if run.SceneCount > 0 {
		return fmt.Sprintf("%d", run.SceneCount)
	}
	if run.RequestedScenes > 0 {
		return fmt.Sprintf("%d?", run.RequestedScenes)
	}
	return "-"
}

func formatProgress(run *queue.Run) string {
	if run.Status == queue.StatusFailed && run.ErrorKind != "" {
		return fmt.Sprintf("%s error", run.ErrorKind)
	}
	stage := strings.TrimSpace(run.ProgressStage)
	if stage == "" {
		return "-"
	}
	return fmt.Sprintf("%s %.0f%%", stage, run.ProgressPercent)
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
