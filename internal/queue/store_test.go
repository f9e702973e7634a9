package queue_test

import (
	"context"
	"testing"
	"time"

	"storyreel/internal/queue"
	"storyreel/internal/testsupport"
)

func TestNewRunDefaults(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run, err := store.NewRun(ctx, "The Old House", 4)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	if run.Status != queue.StatusDrafting {
		t.Fatalf("status = %s, want drafting", run.Status)
	}
	if run.RequestedScenes != 4 {
		t.Fatalf("requested scenes = %d", run.RequestedScenes)
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Fatal("timestamps should be set")
	}
}

func TestUpdatePersistsFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run, err := store.NewRun(ctx, "Mary", 2)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	run.Status = queue.StatusScriptReady
	run.SceneCount = 2
	run.ScriptPath = "/tmp/scenes.json"
	run.ScriptSource = "fallback"
	run.MarkFallback("scripting")
	run.MarkFallback("scripting")
	run.ApprovedAt = &now
	if err := store.Update(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusScriptReady {
		t.Fatalf("status = %s", got.Status)
	}
	if got.SceneCount != 2 || got.ScriptPath != "/tmp/scenes.json" || got.ScriptSource != "fallback" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if list := got.FallbackList(); len(list) != 1 || list[0] != "scripting" {
		t.Fatalf("fallback list = %v", list)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(now) {
		t.Fatalf("approved at = %v, want %v", got.ApprovedAt, now)
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	run, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run != nil {
		t.Fatal("expected nil run for unknown id")
	}
}

func TestTransitionValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run, err := store.NewRun(ctx, "Story", 3)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}

	if err := store.Transition(ctx, run, queue.StatusCompleted); err == nil {
		t.Fatal("drafting -> completed should be rejected")
	}
	if err := store.Transition(ctx, run, queue.StatusScriptReady); err != nil {
		t.Fatalf("drafting -> script_ready: %v", err)
	}
	if err := store.Transition(ctx, run, queue.StatusGeneratingMedia); err != nil {
		t.Fatalf("script_ready -> generating_media: %v", err)
	}
	if err := store.Transition(ctx, run, queue.StatusCompleted); err != nil {
		t.Fatalf("generating_media -> completed: %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, _ := store.NewRun(ctx, "A", 1)
	second, _ := store.NewRun(ctx, "B", 1)
	second.SetFailed("remote", "boom")
	second.Status = queue.StatusFailed
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("update: %v", err)
	}

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != second.ID {
		t.Fatalf("failed runs = %+v", failed)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID {
		t.Fatalf("all runs = %+v", all)
	}
}

func TestRetryFailedResumesAtScriptReady(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	withScript, _ := store.NewRun(ctx, "With Script", 2)
	withScript.ScriptPath = "/tmp/scenes.json"
	withScript.SetFailed("assembly", "ffmpeg exited")
	if err := store.Update(ctx, withScript); err != nil {
		t.Fatalf("update: %v", err)
	}

	withoutScript, _ := store.NewRun(ctx, "No Script", 2)
	withoutScript.SetFailed("asset_write", "disk full")
	if err := store.Update(ctx, withoutScript); err != nil {
		t.Fatalf("update: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if count != 2 {
		t.Fatalf("retried %d runs, want 2", count)
	}

	got, _ := store.GetByID(ctx, withScript.ID)
	if got.Status != queue.StatusScriptReady {
		t.Fatalf("run with script resumed at %s", got.Status)
	}
	got, _ = store.GetByID(ctx, withoutScript.ID)
	if got.Status != queue.StatusDrafting {
		t.Fatalf("run without script resumed at %s", got.Status)
	}
	if got.ErrorMessage != "" || got.ErrorKind != "" {
		t.Fatal("retry should clear error fields")
	}
}

func TestClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	done, _ := store.NewRun(ctx, "Done", 1)
	done.Status = queue.StatusCompleted
	_ = store.Update(ctx, done)

	failed, _ := store.NewRun(ctx, "Broken", 1)
	failed.SetFailed("assembly", "boom")
	_ = store.Update(ctx, failed)

	count, err := store.Clear(ctx, false)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if count != 1 {
		t.Fatalf("cleared %d, want 1", count)
	}

	count, err = store.Clear(ctx, true)
	if err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if count != 1 {
		t.Fatalf("cleared %d failed, want 1", count)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	_, _ = store.NewRun(ctx, "One", 1)
	ready, _ := store.NewRun(ctx, "Two", 1)
	ready.Status = queue.StatusScriptReady
	_ = store.Update(ctx, ready)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[queue.StatusDrafting] != 1 || stats[queue.StatusScriptReady] != 1 {
		t.Fatalf("stats = %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Total != 2 || health.Processing != 1 || health.AwaitingOK != 1 {
		t.Fatalf("health = %+v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("check health: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists {
		t.Fatalf("db health = %+v", dbHealth)
	}
	if dbHealth.TotalRuns != 2 {
		t.Fatalf("total runs = %d", dbHealth.TotalRuns)
	}
}
