package illustration_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/illustration"
	"storyreel/internal/logging"
	"storyreel/internal/queue"
	"storyreel/internal/script"
	"storyreel/internal/scripting"
	"storyreel/internal/services"
	"storyreel/internal/testsupport"
)

type fakeImageClient struct {
	enabled bool
	data    []byte
	err     error
	calls   int
}

func (f *fakeImageClient) Enabled() bool { return f.enabled }

func (f *fakeImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.calls++
	return f.data, f.err
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

func TestExecuteRendersLocallyWithoutClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Image.Size = "64x64"
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	h := illustration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), &fakeImageClient{enabled: false})
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	for idx := 1; idx <= 2; idx++ {
		if _, err := os.Stat(illustration.ImagePath(run.RunDir, idx)); err != nil {
			t.Fatalf("scene %d image missing: %v", idx, err)
		}
	}
	if got := run.FallbackList(); len(got) != 1 || got[0] != "illustration" {
		t.Fatalf("fallback stages = %v", got)
	}
}

func TestExecuteWritesRemoteBytes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	client := &fakeImageClient{enabled: true, data: payload}
	h := illustration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), client)
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if client.calls != 2 {
		t.Fatalf("remote calls = %d, want one per scene", client.calls)
	}
	got, err := os.ReadFile(illustration.ImagePath(run.RunDir, 1))
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("image bytes do not match remote payload")
	}
	if len(run.FallbackList()) != 0 {
		t.Fatalf("unexpected fallback stages %q", run.FallbackStages)
	}
}

func TestExecuteFallsBackPerSceneOnRemoteError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Image.Size = "64x64"
	store := testsupport.MustOpenStore(t, cfg)
	run := prepareRun(t, cfg, store)

	client := &fakeImageClient{
		enabled: true,
		err:     services.Wrap(services.ErrRemote, "imagegen", "generate", "rate limited", nil),
	}
	h := illustration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), client)
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := run.FallbackList(); len(got) != 1 || got[0] != "illustration" {
		t.Fatalf("fallback stages = %v", got)
	}
}

func TestExecuteRequiresScript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	run, err := store.NewRun(context.Background(), "Example", 2)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	run.RunDir = cfg.RunDir(run.ID)

	h := illustration.NewHandlerWithDependencies(cfg, store, logging.NewNop(), nil)
	if err := h.Prepare(context.Background(), run); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	execErr := h.Execute(context.Background(), run)
	if !errors.Is(execErr, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", execErr)
	}
}
