// Package scoring produces the single background music track for a run. The
// theme follows the dominant scene tone; audio comes from the configured
// music API when possible and the local synthesizer otherwise.
package scoring

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/media/wav"
	"storyreel/internal/queue"
	"storyreel/internal/render"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/musicgen"
	"storyreel/internal/stage"
)

// MusicClient composes a background track remotely.
type MusicClient interface {
	Enabled() bool
	Compose(ctx context.Context, prompt string) ([]byte, error)
}

// Handler implements the scoring stage.
type Handler struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client MusicClient
}

// NewHandler constructs the scoring stage with default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	client := musicgen.NewClient(musicgen.Config{
		APIKey:          cfg.Music.APIKey,
		BaseURL:         cfg.Music.BaseURL,
		DurationSeconds: cfg.Music.DurationSeconds,
		TimeoutSeconds:  cfg.Music.TimeoutSeconds,
	})
	return NewHandlerWithDependencies(cfg, store, logger, client)
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client MusicClient) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scoring"))
	}
	return &Handler{cfg: cfg, store: store, logger: stageLogger, client: client}
}

// SetLogger replaces the stage logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", "scoring"))
	}
}

// MusicPath returns the location of the background track inside a run
// directory.
func MusicPath(runDir string) string {
	return filepath.Join(runDir, "music", "bg_music.wav")
}

func (h *Handler) Prepare(ctx context.Context, run *queue.Run) error {
	if err := os.MkdirAll(filepath.Join(run.RunDir, "music"), 0o755); err != nil {
		return services.Wrap(services.ErrAssetWrite, "scoring", "create music directory",
			"Could not create music directory", err)
	}
	run.SetProgress("Scoring", "Composing background music", 0)
	return nil
}

func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	scenes, err := stage.LoadScript(run.ScriptPath)
	if err != nil {
		return err
	}

	tone := DominantTone(scenes)
	theme := render.ThemeForTone(tone)
	logger.Info("music theme selected",
		logging.String("tone", tone),
		logging.String("theme", theme))

	var data []byte
	if h.client != nil && h.client.Enabled() {
		data, err = h.client.Compose(ctx, theme)
		if err != nil {
			logger.Warn("remote music generation failed, synthesizing locally",
				logging.Bool(logging.FieldFallback, true),
				logging.Error(err))
			data = nil
		}
	}
	if data == nil {
		seconds := float64(h.cfg.Music.DurationSeconds)
		data = wav.Encode(render.ThemeClip(theme, seconds), render.SampleRate)
		run.MarkFallback("scoring")
	}

	path := MusicPath(run.RunDir)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrAssetWrite, "scoring", "write music",
			"Could not write background music", err)
	}

	run.SetProgress("Scoring", "Background music ready", 100)
	logger.Info("background music ready", logging.String("path", path))
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.client == nil || !h.client.Enabled() {
		return stage.Health{Name: "scoring", Ready: true, Detail: "music API not configured; local synthesizer in use"}
	}
	return stage.Healthy("scoring")
}

// DominantTone returns the most frequent scene tone, breaking ties in favor
// of the earlier scene.
func DominantTone(s *script.Script) string {
	counts := make(map[string]int)
	best := "neutral"
	bestCount := 0
	for _, scene := range s.Scenes {
		counts[scene.Tone]++
		if counts[scene.Tone] > bestCount {
			best = scene.Tone
			bestCount = counts[scene.Tone]
		}
	}
	return best
}
