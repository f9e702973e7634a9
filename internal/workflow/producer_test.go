package workflow_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"storyreel/internal/assemble"
	"storyreel/internal/illustration"
	"storyreel/internal/logging"
	"storyreel/internal/narration"
	"storyreel/internal/notifications"
	"storyreel/internal/queue"
	"storyreel/internal/scoring"
	"storyreel/internal/scripting"
	"storyreel/internal/services"
	"storyreel/internal/testsupport"
	"storyreel/internal/workflow"
)

type fakeRunner struct {
	calls int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls++
	return nil
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

// newLocalProducer builds a producer whose stages all run in local fallback
// mode, with ffmpeg replaced by a recorder.
func newLocalProducer(t *testing.T, notifier notifications.Service) (*workflow.Producer, *queue.Store, *fakeRunner) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Image.Size = "64x64"
	cfg.Music.DurationSeconds = 1
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	runner := &fakeRunner{}
	producer := workflow.NewProducerWithNotifier(cfg, store, logger, notifier)
	producer.SetHandlers(
		scripting.NewHandlerWithDependencies(cfg, store, logger, nil, notifier),
		illustration.NewHandlerWithDependencies(cfg, store, logger, nil),
		narration.NewHandlerWithDependencies(cfg, store, logger, nil),
		scoring.NewHandlerWithDependencies(cfg, store, logger, nil),
		assemble.NewHandlerWithDependencies(cfg, store, logger, runner),
	)
	return producer, store, runner
}

func TestProduceEndToEndLocal(t *testing.T) {
	notifier := &recordingNotifier{}
	producer, store, runner := newLocalProducer(t, notifier)
	story := testsupport.WriteStory(t, "the_old_house.txt",
		"Mary stepped inside the old house. The door creaked shut behind her.\n\nHer heart pounded as she ran for the stairs.")

	run, err := producer.CreateRun(context.Background(), story, "", 2)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.Title != "The Old House" {
		t.Fatalf("title = %q", run.Title)
	}

	final, err := producer.Produce(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if final.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}
	if final.VideoPath == "" {
		t.Fatal("video path not recorded")
	}
	if runner.calls == 0 {
		t.Fatal("ffmpeg never invoked")
	}

	// All four generation stages ran without remote APIs.
	fallbacks := final.FallbackList()
	if len(fallbacks) != 4 {
		t.Fatalf("fallback stages = %v", fallbacks)
	}

	stored, err := store.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("stored status = %s", stored.Status)
	}

	sawScript := false
	sawCompleted := false
	for _, event := range notifier.events {
		switch event {
		case notifications.EventScriptReady:
			sawScript = true
		case notifications.EventRunCompleted:
			sawCompleted = true
		}
	}
	if !sawScript || !sawCompleted {
		t.Fatalf("events = %v", notifier.events)
	}

	// Scene assets landed in the run directory.
	for idx := 1; idx <= stored.SceneCount; idx++ {
		if _, err := os.Stat(illustration.ImagePath(stored.RunDir, idx)); err != nil {
			t.Fatalf("scene %d image: %v", idx, err)
		}
		if _, err := os.Stat(narration.VoicePath(stored.RunDir, idx)); err != nil {
			t.Fatalf("scene %d voice: %v", idx, err)
		}
	}
	if _, err := os.Stat(scoring.MusicPath(stored.RunDir)); err != nil {
		t.Fatalf("music: %v", err)
	}
}

func TestCreateRunRejectsEmptyStory(t *testing.T) {
	producer, _, _ := newLocalProducer(t, nil)
	story := testsupport.WriteStory(t, "empty.txt", "   \n")

	_, err := producer.CreateRun(context.Background(), story, "", 2)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestGenerateMediaRequiresScriptReady(t *testing.T) {
	producer, _, _ := newLocalProducer(t, nil)
	story := testsupport.WriteStory(t, "story.txt", "One thing happened. Then another.")

	run, err := producer.CreateRun(context.Background(), story, "", 2)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	_, err = producer.GenerateMedia(context.Background(), run.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation for drafting run", err)
	}
}

func TestGenerateScriptUnknownRun(t *testing.T) {
	producer, _, _ := newLocalProducer(t, nil)
	_, err := producer.GenerateScript(context.Background(), 999)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestHealthReportsAllStages(t *testing.T) {
	producer, _, _ := newLocalProducer(t, nil)
	health := producer.Health(context.Background())
	if len(health) != 5 {
		t.Fatalf("health entries = %d, want 5", len(health))
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"the_old_house.txt": "The Old House",
		"space-journey.md":  "Space Journey",
		"story.txt":         "Story",
	}
	for input, want := range cases {
		if got := workflow.TitleFromFilename(input); got != want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
