// Package stageexec executes a single pipeline stage against a run and
// applies the shared persistence and failure semantics.
package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/queue"
	"storyreel/internal/services"
	"storyreel/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Run) error
	Execute(context.Context, *queue.Run) error
}

// Options controls stage execution and run persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *queue.Store
	Notifier   notifications.Service
	Handler    Handler
	StageName  string
	Processing queue.Status
	Done       queue.Status
	Run        *queue.Run
}

// Run executes a stage and applies the transition semantics shared by every
// pipeline step: persist the processing status, run Prepare and Execute, then
// persist the done status or the classified failure.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("run store is required")
	}
	if opts.Run == nil {
		return fmt.Errorf("run is required")
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("title", strings.TrimSpace(opts.Run.Title)),
	)

	opts.Run.InitProgress(stageLabel(opts.StageName), fmt.Sprintf("%s started", stageLabel(opts.StageName)))
	if err := opts.Store.Transition(stageCtx, opts.Run, opts.Processing); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Run); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Run); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Run); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	if opts.Run.Status == opts.Processing {
		if err := opts.Store.Transition(stageCtx, opts.Run, opts.Done); err != nil {
			return fmt.Errorf("persist stage result: %w", err)
		}
	} else if err := opts.Store.Update(stageCtx, opts.Run); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Run.Status)),
		logging.String("progress_message", strings.TrimSpace(opts.Run.ProgressMessage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		message = strings.TrimSpace(services.Message(stageErr))
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}
	// SetFailed stamps the failed status eagerly; restore the pre-failure
	// status so Transition validates the real edge.
	from := opts.Run.Status
	opts.Run.SetFailed(services.ErrorKind(stageErr), message)
	opts.Run.Status = from

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_kind", opts.Run.ErrorKind),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := opts.Store.Transition(ctx, opts.Run, queue.StatusFailed); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	if opts.Notifier != nil && stageErr != nil {
		contextLabel := fmt.Sprintf("%s (run #%d)", opts.StageName, opts.Run.ID)
		if err := opts.Notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"error":   stageErr,
			"context": contextLabel,
		}); err != nil {
			logger.Debug("stage error notification failed", logging.Error(err))
		}
	}

	return stageErr
}

func stageLabel(name string) string {
	parts := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
