// Package scripting turns a story into an ordered scene script, remotely via
// the configured LLM when possible and via the local segmenter otherwise.
package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/queue"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/scenegen"
	"storyreel/internal/stage"
)

// ScriptClient produces a scene script from a story remotely.
type ScriptClient interface {
	Enabled() bool
	GenerateScript(ctx context.Context, story string, sceneCount int) (*script.Script, error)
}

// Handler implements the scripting stage.
type Handler struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	client   ScriptClient
	notifier notifications.Service
}

// NewHandler constructs the scripting stage with default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	client := scenegen.NewClient(scenegen.Config{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Script.BaseURL,
		Model:          cfg.Script.Model,
		TimeoutSeconds: cfg.Script.TimeoutSeconds,
	})
	return NewHandlerWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ScriptClient, notifier notifications.Service) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scripting"))
	}
	return &Handler{cfg: cfg, store: store, logger: stageLogger, client: client, notifier: notifier}
}

// SetLogger replaces the stage logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", "scripting"))
	}
}

// StoryPath returns the location of the story text inside a run directory.
func StoryPath(runDir string) string {
	return filepath.Join(runDir, "story.txt")
}

// ScenesPath returns the location of the scene script inside a run directory.
func ScenesPath(runDir string) string {
	return filepath.Join(runDir, "scenes.json")
}

func (h *Handler) Prepare(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)
	if run.RunDir == "" {
		run.RunDir = h.cfg.RunDir(run.ID)
	}
	if err := os.MkdirAll(run.RunDir, 0o755); err != nil {
		return services.Wrap(services.ErrAssetWrite, "scripting", "create run directory",
			"Could not create run directory; check library_dir permissions", err)
	}
	run.SetProgress("Scripting", "Breaking story into scenes", 0)
	logger.Info("scripting prepared", logging.String("run_dir", run.RunDir))
	return nil
}

func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	story, err := os.ReadFile(StoryPath(run.RunDir))
	if err != nil {
		return services.Wrap(services.ErrValidation, "scripting", "read story",
			"Story text missing from run directory", err)
	}
	text := strings.TrimSpace(string(story))
	if text == "" {
		return services.Wrap(services.ErrValidation, "scripting", "read story",
			"Story text is empty", nil)
	}
	sceneCount := run.RequestedScenes
	if sceneCount < 1 {
		sceneCount = h.cfg.Script.SceneCount
	}

	var result *script.Script
	if h.client != nil && h.client.Enabled() {
		result, err = h.client.GenerateScript(ctx, text, sceneCount)
		if err != nil {
			logger.Warn("remote script generation failed, using local segmenter",
				logging.Bool(logging.FieldFallback, true),
				logging.Error(err))
			result = nil
		}
	} else {
		logger.Info("script API not configured, using local segmenter",
			logging.Bool(logging.FieldFallback, true))
	}

	if result == nil {
		result, err = script.Segment(text, sceneCount)
		if err != nil {
			return err
		}
		run.MarkFallback("scripting")
	}

	result.Title = run.Title
	scenesPath := ScenesPath(run.RunDir)
	if err := result.WriteFile(scenesPath); err != nil {
		return services.Wrap(services.ErrAssetWrite, "scripting", "write scenes",
			"Could not write scene script", err)
	}

	run.ScriptPath = scenesPath
	run.SceneCount = len(result.Scenes)
	run.ScriptSource = result.Source
	run.SetProgress("Scripting", fmt.Sprintf("Script ready with %d scenes", len(result.Scenes)), 100)

	logger.Info("script ready",
		logging.Int("scenes", len(result.Scenes)),
		logging.String("source", result.Source))

	if h.notifier != nil {
		if err := h.notifier.Publish(ctx, notifications.EventScriptReady, notifications.Payload{
			"title":  run.Title,
			"scenes": fmt.Sprintf("%d", len(result.Scenes)),
		}); err != nil {
			logger.Debug("script ready notification failed", logging.Error(err))
		}
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.client == nil || !h.client.Enabled() {
		return stage.Health{Name: "scripting", Ready: true, Detail: "script API not configured; local segmenter in use"}
	}
	return stage.Healthy("scripting")
}
