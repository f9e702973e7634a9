// Package assemble stitches scene stills, narration clips, and the
// background track into the final video with ffmpeg.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/internal/config"
	"storyreel/internal/illustration"
	"storyreel/internal/logging"
	"storyreel/internal/media/wav"
	"storyreel/internal/narration"
	"storyreel/internal/queue"
	"storyreel/internal/scoring"
	"storyreel/internal/services"
	"storyreel/internal/stage"
)

// CommandRunner executes an external command. The default implementation
// shells out; tests substitute a recorder.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String(), 400))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Handler implements the assemble stage.
type Handler struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	runner CommandRunner
}

// NewHandler constructs the assemble stage with default dependencies.
func NewHandler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Handler {
	return NewHandlerWithDependencies(cfg, store, logger, execRunner{})
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, runner CommandRunner) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "assemble"))
	}
	return &Handler{cfg: cfg, store: store, logger: stageLogger, runner: runner}
}

// SetLogger replaces the stage logger.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", "assemble"))
	}
}

// VideoPath returns the location of the final video inside a run directory.
func VideoPath(runDir string) string {
	return filepath.Join(runDir, "final_video.mp4")
}

func (h *Handler) Prepare(ctx context.Context, run *queue.Run) error {
	run.SetProgress("Assemble", "Assembling final video", 0)
	return nil
}

func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	scenes, err := stage.LoadScript(run.ScriptPath)
	if err != nil {
		return err
	}

	for _, scene := range scenes.Scenes {
		for _, path := range []string{
			illustration.ImagePath(run.RunDir, scene.Index),
			narration.VoicePath(run.RunDir, scene.Index),
		} {
			if _, err := os.Stat(path); err != nil {
				return services.Wrap(services.ErrAssembly, "assemble", "check assets",
					fmt.Sprintf("Missing asset for scene %d: %s", scene.Index, filepath.Base(path)), err)
			}
		}
	}
	musicPath := scoring.MusicPath(run.RunDir)
	if _, err := os.Stat(musicPath); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "check assets",
			"Background music missing", err)
	}

	segmentsDir := filepath.Join(run.RunDir, "segments")
	if err := os.MkdirAll(segmentsDir, 0o755); err != nil {
		return services.Wrap(services.ErrAssetWrite, "assemble", "create segments directory",
			"Could not create segments directory", err)
	}
	defer os.RemoveAll(segmentsDir)

	ffmpeg := h.cfg.FFmpegBinary()
	total := len(scenes.Scenes)

	segmentPaths := make([]string, 0, total)
	for i, scene := range scenes.Scenes {
		voicePath := narration.VoicePath(run.RunDir, scene.Index)
		duration := h.cfg.Video.SecondsPerScene
		if clip, err := wav.FileDuration(voicePath); err == nil {
			if clipSecs := clip.Seconds(); clipSecs > duration {
				duration = clipSecs
			}
		}

		overlayPath := filepath.Join(segmentsDir, fmt.Sprintf("overlay_%d.txt", scene.Index))
		if err := os.WriteFile(overlayPath, []byte(overlayText(scene.Narration)), 0o644); err != nil {
			return services.Wrap(services.ErrAssetWrite, "assemble", "write overlay text",
				fmt.Sprintf("Could not write narration overlay for scene %d", scene.Index), err)
		}

		segmentPath := filepath.Join(segmentsDir, fmt.Sprintf("segment_%d.mp4", scene.Index))
		args := segmentArgs(h.cfg, illustration.ImagePath(run.RunDir, scene.Index), voicePath, segmentPath, overlayPath, duration)
		if err := h.runner.Run(ctx, ffmpeg, args...); err != nil {
			return services.Wrap(services.ErrAssembly, "assemble", "encode segment",
				fmt.Sprintf("ffmpeg failed for scene %d", scene.Index), err)
		}
		segmentPaths = append(segmentPaths, segmentPath)

		percent := float64(i+1) / float64(total+2) * 100
		run.SetProgress("Assemble", fmt.Sprintf("Encoded segment %d of %d", i+1, total), percent)
		logger.Info("segment encoded",
			logging.Int(logging.FieldScene, scene.Index),
			logging.Float64("duration_seconds", duration))
	}

	listPath := filepath.Join(segmentsDir, "segments.txt")
	if err := writeConcatList(listPath, segmentPaths); err != nil {
		return services.Wrap(services.ErrAssetWrite, "assemble", "write concat list",
			"Could not write segment list", err)
	}

	slideshowPath := filepath.Join(segmentsDir, "slideshow.mp4")
	if err := h.runner.Run(ctx, ffmpeg, concatArgs(listPath, slideshowPath)...); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "concatenate segments",
			"ffmpeg failed while concatenating segments", err)
	}
	run.SetProgress("Assemble", "Segments concatenated", float64(total+1)/float64(total+2)*100)

	videoPath := VideoPath(run.RunDir)
	if err := h.runner.Run(ctx, ffmpeg, mixArgs(h.cfg, slideshowPath, musicPath, videoPath)...); err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "mix music",
			"ffmpeg failed while mixing background music", err)
	}

	run.VideoPath = videoPath
	run.SetProgress("Assemble", "Final video ready", 100)
	logger.Info("final video ready", logging.String("path", videoPath))
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(h.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy("assemble", "ffmpeg not found in PATH")
	}
	return stage.Healthy("assemble")
}

const (
	overlayMaxChars    = 100
	overlayLineWidth   = 40
	overlayFontSize    = 24
	overlayBottomPad   = 40
	overlayLineSpacing = 8
)

// overlayText prepares the narration for the on-screen caption: long
// narrations are truncated and the rest is word-wrapped so the drawtext
// block fits the frame width.
func overlayText(narration string) string {
	text := strings.Join(strings.Fields(narration), " ")
	if len(text) > overlayMaxChars {
		text = text[:overlayMaxChars] + "..."
	}

	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > overlayLineWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// segmentArgs builds the ffmpeg invocation for a single still-plus-narration
// segment. The image loops for the full duration, the narration text is
// burned in at the bottom of the frame, and the audio is padded with silence
// to match. The caption comes from a text file so no shell escaping of the
// narration is needed.
func segmentArgs(cfg *config.Config, imagePath, voicePath, outputPath, overlayPath string, duration float64) []string {
	fade := cfg.Video.CrossfadeSeconds
	filters := []string{
		"scale=trunc(iw/2)*2:trunc(ih/2)*2",
		fmt.Sprintf("drawtext=textfile=%s:fontcolor=white:fontsize=%d:line_spacing=%d:box=1:boxcolor=black@0.5:boxborderw=16:x=(w-text_w)/2:y=h-text_h-%d",
			overlayPath, overlayFontSize, overlayLineSpacing, overlayBottomPad),
	}
	if fade > 0 && duration > 2*fade {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%.2f", fade),
			fmt.Sprintf("fade=t=out:st=%.2f:d=%.2f", duration-fade, fade),
		)
	}
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", voicePath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-r", fmt.Sprintf("%d", cfg.Video.FPS),
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-af", "apad",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100",
		outputPath,
	}
}

// concatArgs builds the ffmpeg invocation joining the per-scene segments via
// the concat demuxer without re-encoding.
func concatArgs(listPath, outputPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
}

// mixArgs builds the ffmpeg invocation that loops the background track under
// the narration at the configured volume and stops at the video's end.
func mixArgs(cfg *config.Config, videoPath, musicPath, outputPath string) []string {
	filter := fmt.Sprintf(
		"[1:a]volume=%.2f[bg];[0:a][bg]amix=inputs=2:duration=first:dropout_transition=2[mix]",
		cfg.Video.MusicVolume,
	)
	return []string{
		"-y",
		"-i", videoPath,
		"-stream_loop", "-1",
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[mix]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		outputPath,
	}
}

func writeConcatList(path string, segments []string) error {
	var builder strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&builder, "file '%s'\n", segment)
	}
	return os.WriteFile(path, []byte(builder.String()), 0o644)
}
