package narration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/media/wav"
	"storyreel/internal/narration"
	"storyreel/internal/queue"
	"storyreel/internal/script"
	"storyreel/internal/scripting"
	"storyreel/internal/services"
	"storyreel/internal/testsupport"
)

type fakeVoiceClient struct {
	enabled bool
	pcm     []byte
	err     error
}

func (f *fakeVoiceClient) Enabled() bool { return f.enabled }

func (f *fakeVoiceClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.pcm, f.err
}

func prepareRun(t *testing.T, cfg *config.Config, store *queue.Store) *queue.Run {
	t.Helper()
	run, err := store.NewRun(context.Background(), "Example", 2)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	run.RunDir = cfg.RunDir(run.ID)
	if err := os.MkdirAll(run.RunDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := &script.Script{
		Title:  "Example",
		Source: script.SourceFallback,
		Scenes: []script.Scene{
			{Index: 1, Description: "Scene 1", Narration: "Mary opened the door.", Tone: "mysterious"},
			{Index: 2, Description: "Scene 2", Narration: "The hallway was dark.", Tone: "tense"},
		},
	}
	run.ScriptPath = scripting.ScenesPath(run.RunDir)
	if err := src.WriteFile(run.ScriptPath); err != nil {
		t.Fatalf("write scenes: %v", err)
	}
	return run
}

func TestExecuteSynthesizesLocally(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	h := narration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), &fakeVoiceClient{enabled: false})
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	for idx := 1; idx <= 2; idx++ {
		dur, err := wav.FileDuration(narration.VoicePath(run.RunDir, idx))
		if err != nil {
			t.Fatalf("scene %d clip: %v", idx, err)
		}
		// Short narrations hit the three second floor.
		if dur < 3*time.Second-50*time.Millisecond {
			t.Fatalf("scene %d duration = %v", idx, dur)
		}
	}
	if got := run.FallbackList(); len(got) != 1 || got[0] != "narration" {
		t.Fatalf("fallback stages = %v", got)
	}
}

func TestExecuteWrapsRemotePCM(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	// One second of silence at 44.1kHz.
	pcm := make([]byte, 44100*2)
	h := narration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), &fakeVoiceClient{enabled: true, pcm: pcm})
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	dur, err := wav.FileDuration(narration.VoicePath(run.RunDir, 1))
	if err != nil {
		t.Fatalf("clip duration: %v", err)
	}
	if dur != time.Second {
		t.Fatalf("duration = %v, want 1s", dur)
	}
	if len(run.FallbackList()) != 0 {
		t.Fatalf("unexpected fallback stages %q", run.FallbackStages)
	}
}

func TestExecuteFallsBackOnRemoteError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	client := &fakeVoiceClient{
		enabled: true,
		err:     services.Wrap(services.ErrRemote, "voicegen", "synthesize", "quota exceeded", nil),
	}
	h := narration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), client)
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := run.FallbackList(); len(got) != 1 || got[0] != "narration" {
		t.Fatalf("fallback stages = %v", got)
	}
}
