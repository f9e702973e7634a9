package stage

import (
	"context"
	"log/slog"

	"storyreel/internal/queue"
)

// Handler describes the contract the workflow producer needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Run) error
	Execute(context.Context, *queue.Run) error
	HealthCheck(context.Context) Health
}

// LoggerAware lets the execution helper hand a stage-scoped logger to
// handlers that log.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
