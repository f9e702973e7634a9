// Package illustration produces one still image per scene, remotely via the
// configured image API when possible and via the deterministic local renderer
// otherwise.
package illustration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/queue"
	"storyreel/internal/render"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/stage"
)

// ImageClient produces a scene image from a prompt remotely.
type ImageClient interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Handler implements the illustration stage.
type Handler struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client ImageClient
}

// NewHandler constructs the illustration stage with default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	client := imagegen.NewClient(imagegen.Config{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Image.BaseURL,
		Model:          cfg.Image.Model,
		Size:           cfg.Image.Size,
		TimeoutSeconds: cfg.Image.TimeoutSeconds,
	})
	return NewHandlerWithDependencies(cfg, store, logger, client)
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ImageClient) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "illustration"))
	}
	return &Handler{cfg: cfg, store: store, logger: stageLogger, client: client}
}

// SetLogger replaces the stage logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", "illustration"))
	}
}

// ImagePath returns the location of a scene still inside a run directory.
func ImagePath(runDir string, sceneIndex int) string {
	return filepath.Join(runDir, "images", fmt.Sprintf("scene_%d.png", sceneIndex))
}

func (h *Handler) Prepare(ctx context.Context, run *queue.Run) error {
	if err := os.MkdirAll(filepath.Join(run.RunDir, "images"), 0o755); err != nil {
		return services.Wrap(services.ErrAssetWrite, "illustration", "create images directory",
			"Could not create images directory", err)
	}
	run.SetProgress("Illustration", "Generating scene images", 0)
	return nil
}

func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	scenes, err := stage.LoadScript(run.ScriptPath)
	if err != nil {
		return err
	}

	usedFallback := false
	for i, scene := range scenes.Scenes {
		prompt := scene.ImagePrompt
		if strings.TrimSpace(prompt) == "" {
			prompt = script.BuildImagePrompt(scene.Narration, scene.Tone)
		}

		var data []byte
		if h.client != nil && h.client.Enabled() {
			data, err = h.client.Generate(ctx, prompt)
			if err != nil {
				logger.Warn("remote image generation failed, rendering locally",
					logging.Int(logging.FieldScene, scene.Index),
					logging.Bool(logging.FieldFallback, true),
					logging.Error(err))
				data = nil
			}
		}
		if data == nil {
			width, height := imageDimensions(h.cfg.Image.Size)
			data, err = render.SceneImage(prompt, scene.Tone, width, height)
			if err != nil {
				return services.Wrap(services.ErrAssetWrite, "illustration", "render image",
					fmt.Sprintf("Could not render image for scene %d", scene.Index), err)
			}
			usedFallback = true
		}

		path := ImagePath(run.RunDir, scene.Index)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return services.Wrap(services.ErrAssetWrite, "illustration", "write image",
				fmt.Sprintf("Could not write image for scene %d", scene.Index), err)
		}

		percent := float64(i+1) / float64(len(scenes.Scenes)) * 100
		run.SetProgress("Illustration", fmt.Sprintf("Rendered scene %d of %d", i+1, len(scenes.Scenes)), percent)
		logger.Info("scene image ready",
			logging.Int(logging.FieldScene, scene.Index),
			logging.String("path", path))
	}

	if usedFallback {
		run.MarkFallback("illustration")
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.client == nil || !h.client.Enabled() {
		return stage.Health{Name: "illustration", Ready: true, Detail: "image API not configured; local renderer in use"}
	}
	return stage.Healthy("illustration")
}

// imageDimensions parses a WxH size string, falling back to 1024x1024.
func imageDimensions(size string) (int, int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(size)), "x", 2)
	if len(parts) == 2 {
		w, werr := strconv.Atoi(parts[0])
		h, herr := strconv.Atoi(parts[1])
		if werr == nil && herr == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 1024, 1024
}
