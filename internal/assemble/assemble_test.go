package assemble_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/assemble"
	"storyreel/internal/config"
	"storyreel/internal/illustration"
	"storyreel/internal/logging"
	"storyreel/internal/media/wav"
	"storyreel/internal/narration"
	"storyreel/internal/queue"
	"storyreel/internal/scoring"
	"storyreel/internal/script"
	"storyreel/internal/scripting"
	"storyreel/internal/services"
	"storyreel/internal/testsupport"
)

type fakeRunner struct {
	commands [][]string
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.commands = append(f.commands, append([]string{name}, args...))
	return f.err
}

// overlayRunner reads the drawtext caption files while the segments
// directory still exists; Execute removes it before returning.
type overlayRunner struct {
	fakeRunner
	overlays []string
}

func (o *overlayRunner) Run(ctx context.Context, name string, args ...string) error {
	for _, arg := range args {
		for _, filter := range strings.Split(arg, ",") {
			if !strings.HasPrefix(filter, "drawtext=textfile=") {
				continue
			}
			path := strings.TrimPrefix(filter, "drawtext=textfile=")
			if idx := strings.Index(path, ":"); idx >= 0 {
				path = path[:idx]
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			o.overlays = append(o.overlays, string(data))
		}
	}
	return o.fakeRunner.Run(ctx, name, args...)
}

func prepareRun(t *testing.T, cfg *config.Config, store *queue.Store, withAssets bool) *queue.Run {
	t.Helper()
	run, err := store.NewRun(context.Background(), "Example", 2)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	run.RunDir = cfg.RunDir(run.ID)
	src := &script.Script{
		Title:  "Example",
		Source: script.SourceFallback,
		Scenes: []script.Scene{
			{Index: 1, Description: "Scene 1", Narration: "Mary opened the door.", Tone: "mysterious"},
			{Index: 2, Description: "Scene 2", Narration: "The hallway was dark.", Tone: "tense"},
		},
	}
	if err := os.MkdirAll(run.RunDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	run.ScriptPath = scripting.ScenesPath(run.RunDir)
	if err := src.WriteFile(run.ScriptPath); err != nil {
		t.Fatalf("write scenes: %v", err)
	}

	if withAssets {
		for _, dir := range []string{"images", "voice", "music"} {
			if err := os.MkdirAll(filepath.Join(run.RunDir, dir), 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
		for idx := 1; idx <= 2; idx++ {
			img := illustration.ImagePath(run.RunDir, idx)
			if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
				t.Fatalf("write image: %v", err)
			}
			// 10 seconds of silence, longer than the configured scene length.
			if err := wav.WriteFile(narration.VoicePath(run.RunDir, idx), make([]int16, 44100*10), 44100); err != nil {
				t.Fatalf("write voice: %v", err)
			}
		}
		if err := wav.WriteFile(scoring.MusicPath(run.RunDir), make([]int16, 44100), 44100); err != nil {
			t.Fatalf("write music: %v", err)
		}
	}
	return run
}

func TestExecuteBuildsSegmentsConcatAndMix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Video.SecondsPerScene = 8
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, true)

	runner := &fakeRunner{}
	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), runner)
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Two segments, one concat, one mix.
	if len(runner.commands) != 4 {
		t.Fatalf("commands = %d, want 4", len(runner.commands))
	}

	segment := strings.Join(runner.commands[0], " ")
	if !strings.Contains(segment, "libx264") || !strings.Contains(segment, "yuv420p") {
		t.Fatalf("segment command missing codec settings: %s", segment)
	}
	// Narration is 10s, longer than the 8s floor, so it wins.
	if !strings.Contains(segment, "-t 10.000") {
		t.Fatalf("segment command uses wrong duration: %s", segment)
	}

	concat := strings.Join(runner.commands[2], " ")
	if !strings.Contains(concat, "-f concat") || !strings.Contains(concat, "-c copy") {
		t.Fatalf("concat command malformed: %s", concat)
	}

	mix := strings.Join(runner.commands[3], " ")
	if !strings.Contains(mix, "amix=inputs=2") || !strings.Contains(mix, "volume=0.20") {
		t.Fatalf("mix command malformed: %s", mix)
	}
	if !strings.Contains(mix, "-stream_loop -1") {
		t.Fatalf("mix command does not loop music: %s", mix)
	}

	if run.VideoPath != assemble.VideoPath(run.RunDir) {
		t.Fatalf("video path = %q", run.VideoPath)
	}
}

func TestExecuteBurnsNarrationIntoSegments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, true)

	runner := &overlayRunner{}
	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), runner)
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	segment := strings.Join(runner.commands[0], " ")
	if !strings.Contains(segment, "drawtext=textfile=") {
		t.Fatalf("segment command missing caption filter: %s", segment)
	}
	if len(runner.overlays) != 2 {
		t.Fatalf("overlays = %d, want 2", len(runner.overlays))
	}
	if runner.overlays[0] != "Mary opened the door." {
		t.Fatalf("overlay text = %q", runner.overlays[0])
	}
	if runner.overlays[1] != "The hallway was dark." {
		t.Fatalf("overlay text = %q", runner.overlays[1])
	}
}

func TestExecuteWrapsAndTruncatesLongCaptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, true)

	long := strings.TrimSpace(strings.Repeat("the fog rolled over the quiet harbor ", 5))
	src := &script.Script{
		Title:  "Example",
		Source: script.SourceFallback,
		Scenes: []script.Scene{
			{Index: 1, Description: "Scene 1", Narration: long, Tone: "mysterious"},
			{Index: 2, Description: "Scene 2", Narration: "The hallway was dark.", Tone: "tense"},
		},
	}
	if err := src.WriteFile(run.ScriptPath); err != nil {
		t.Fatalf("write scenes: %v", err)
	}

	runner := &overlayRunner{}
	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), runner)
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	caption := runner.overlays[0]
	if !strings.HasSuffix(caption, "...") {
		t.Fatalf("long caption not truncated: %q", caption)
	}
	for _, line := range strings.Split(caption, "\n") {
		if len(line) > 40 {
			t.Fatalf("caption line too wide: %q", line)
		}
	}
	if !strings.Contains(caption, "\n") {
		t.Fatalf("long caption not wrapped: %q", caption)
	}
}

func TestExecuteUsesSceneFloorForShortNarration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Video.SecondsPerScene = 8
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, true)

	// Overwrite narrations with one second clips.
	for idx := 1; idx <= 2; idx++ {
		if err := wav.WriteFile(narration.VoicePath(run.RunDir, idx), make([]int16, 44100), 44100); err != nil {
			t.Fatalf("write voice: %v", err)
		}
	}

	runner := &fakeRunner{}
	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), runner)
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}
	segment := strings.Join(runner.commands[0], " ")
	if !strings.Contains(segment, "-t 8.000") {
		t.Fatalf("segment command should use the scene floor: %s", segment)
	}
}

func TestExecuteFailsOnMissingAssets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, false)

	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), &fakeRunner{})
	err := h.Execute(context.Background(), run)
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("err = %v, want assembly", err)
	}
}

func TestExecuteWrapsFfmpegFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store, true)

	runner := &fakeRunner{err: errors.New("ffmpeg: exit status 1")}
	h := assemble.NewHandlerWithDependencies(cfg, store, logging.NewNop(), runner)
	err := h.Execute(context.Background(), run)
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("err = %v, want assembly", err)
	}
}
