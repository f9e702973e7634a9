// Package narration produces one voice clip per scene, remotely via the
// configured voice API when possible and via the local tone synthesizer
// otherwise. Every clip is written as 16-bit mono WAV at a shared sample
// rate so assembly can treat them uniformly.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/media/wav"
	"storyreel/internal/queue"
	"storyreel/internal/render"
	"storyreel/internal/services"
	"storyreel/internal/services/voicegen"
	"storyreel/internal/stage"
)

// VoiceClient synthesizes narration audio remotely, returning raw PCM at
// voicegen.SampleRate.
type VoiceClient interface {
	Enabled() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Handler implements the narration stage.
type Handler struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client VoiceClient
}

// NewHandler constructs the narration stage with default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	client := voicegen.NewClient(voicegen.Config{
		APIKey:         cfg.Voice.APIKey,
		BaseURL:        cfg.Voice.BaseURL,
		VoiceID:        cfg.Voice.VoiceID,
		TimeoutSeconds: cfg.Voice.TimeoutSeconds,
	})
	return NewHandlerWithDependencies(cfg, store, logger, client)
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client VoiceClient) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "narration"))
	}
	return &Handler{cfg: cfg, store: store, logger: stageLogger, client: client}
}

// SetLogger replaces the stage logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", "narration"))
	}
}

// VoicePath returns the location of a scene narration clip inside a run
// directory.
func VoicePath(runDir string, sceneIndex int) string {
	return filepath.Join(runDir, "voice", fmt.Sprintf("scene_%d.wav", sceneIndex))
}

func (h *Handler) Prepare(ctx context.Context, run *queue.Run) error {
	if err := os.MkdirAll(filepath.Join(run.RunDir, "voice"), 0o755); err != nil {
		return services.Wrap(services.ErrAssetWrite, "narration", "create voice directory",
			"Could not create voice directory", err)
	}
	run.SetProgress("Narration", "Generating narration clips", 0)
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
		var data []byte
		if h.client != nil && h.client.Enabled() {
			pcm, err := h.client.Synthesize(ctx, scene.Narration)
			if err != nil {
				logger.Warn("remote voice synthesis failed, synthesizing locally",
					logging.Int(logging.FieldScene, scene.Index),
					logging.Bool(logging.FieldFallback, true),
					logging.Error(err))
			} else {
				data = wav.EncodePCM(pcm, voicegen.SampleRate)
			}
		}
		if data == nil {
			data = wav.Encode(render.SpeechClip(scene.Narration), render.SampleRate)
			usedFallback = true
		}

		path := VoicePath(run.RunDir, scene.Index)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return services.Wrap(services.ErrAssetWrite, "narration", "write voice clip",
				fmt.Sprintf("Could not write narration for scene %d", scene.Index), err)
		}

		percent := float64(i+1) / float64(len(scenes.Scenes)) * 100
		run.SetProgress("Narration", fmt.Sprintf("Narrated scene %d of %d", i+1, len(scenes.Scenes)), percent)
		logger.Info("scene narration ready",
			logging.Int(logging.FieldScene, scene.Index),
			logging.String("path", path))
	}

	if usedFallback {
		run.MarkFallback("narration")
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if h.client == nil || !h.client.Enabled() {
		return stage.Health{Name: "narration", Ready: true, Detail: "voice API not configured; local synthesizer in use"}
	}
	return stage.Healthy("narration")
}
