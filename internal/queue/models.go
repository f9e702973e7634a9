package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a production run.
type Status string

const (
	StatusDrafting        Status = "drafting"
	StatusScriptReady     Status = "script_ready"
	StatusGeneratingMedia Status = "generating_media"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusDrafting,
	StatusScriptReady,
	StatusGeneratingMedia,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDrafting:        {},
	StatusGeneratingMedia: {},
}

var validTransitions = map[Status][]Status{
	StatusDrafting:        {StatusScriptReady, StatusFailed},
	StatusScriptReady:     {StatusDrafting, StatusGeneratingMedia, StatusFailed},
	StatusGeneratingMedia: {StatusCompleted, StatusFailed},
	StatusFailed:          {StatusDrafting, StatusScriptReady},
}

// ValidTransition reports whether a run may move from one status to another.
func ValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HealthSummary describes aggregated run counts per key lifecycle states.
type HealthSummary struct {
	Total        int
	AwaitingOK   int
	Processing   int
	Failed       int
	Completed    int
}

// DatabaseHealth captures diagnostic information about the run database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	TotalRuns        int
	Error            string
}

// Run represents a story production run persisted in SQLite.
type Run struct {
	ID              int64
	Title           string
	Status          Status
	RequestedScenes int
	SceneCount      int
	RunDir          string
	ScriptPath      string
	VideoPath       string
	ScriptSource    string
	FallbackStages  string
	ErrorKind       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (r Run) IsProcessing() bool {
	_, ok := processingStatuses[r.Status]
	return ok
}

// SetProgress updates all three progress fields together.
func (r *Run) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// InitProgress resets progress fields at the start of a stage and clears any
// stale error.
func (r *Run) InitProgress(stage, message string) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = 0
	r.ErrorKind = ""
	r.ErrorMessage = ""
}

// SetFailed marks the run as failed with a classified error.
func (r *Run) SetFailed(kind, message string) {
	r.Status = StatusFailed
	r.ErrorKind = kind
	r.ErrorMessage = message
	r.ProgressStage = "Failed"
	r.ProgressMessage = message
	r.ProgressPercent = 0
}

// MarkFallback records that a stage produced its asset locally instead of via
// the remote API. Stages are stored as a comma-separated list in run order.
func (r *Run) MarkFallback(stage string) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return
	}
	for _, existing := range r.FallbackList() {
		if existing == stage {
			return
		}
	}
	if r.FallbackStages == "" {
		r.FallbackStages = stage
		return
	}
	r.FallbackStages += "," + stage
}

// FallbackList returns the stages that used the local synthesizer.
func (r Run) FallbackList() []string {
	if strings.TrimSpace(r.FallbackStages) == "" {
		return nil
	}
	parts := strings.Split(r.FallbackStages, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
