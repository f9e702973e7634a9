package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"storyreel/internal/assemble"
	"storyreel/internal/config"
	"storyreel/internal/illustration"
	"storyreel/internal/logging"
	"storyreel/internal/narration"
	"storyreel/internal/notifications"
	"storyreel/internal/queue"
	"storyreel/internal/scoring"
	"storyreel/internal/scripting"
	"storyreel/internal/services"
	"storyreel/internal/stage"
	"storyreel/internal/stageexec"
)

// Stage names in pipeline order.
const (
	StageScripting    = "scripting"
	StageIllustration = "illustration"
	StageNarration    = "narration"
	StageScoring      = "scoring"
	StageAssemble     = "assemble"
)

// Producer drives a run through the pipeline one stage at a time.
type Producer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	scripting    stage.Handler
	illustration stage.Handler
	narration    stage.Handler
	scoring      stage.Handler
	assemble     stage.Handler
}

// NewProducer constructs a producer with default stage handlers.
func NewProducer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Producer {
	return NewProducerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewProducerWithNotifier constructs a producer with a custom notifier (used
// in tests).
func NewProducerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Producer {
	return &Producer{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		scripting:    scripting.NewHandler(cfg, store, logger),
		illustration: illustration.NewHandler(cfg, store, logger),
		narration:    narration.NewHandler(cfg, store, logger),
		scoring:      scoring.NewHandler(cfg, store, logger),
		assemble:     assemble.NewHandler(cfg, store, logger),
	}
}

// SetHandlers replaces stage handlers (used in tests).
func (p *Producer) SetHandlers(scriptingH, illustrationH, narrationH, scoringH, assembleH stage.Handler) {
	if scriptingH != nil {
		p.scripting = scriptingH
	}
	if illustrationH != nil {
		p.illustration = illustrationH
	}
	if narrationH != nil {
		p.narration = narrationH
	}
	if scoringH != nil {
		p.scoring = scoringH
	}
	if assembleH != nil {
		p.assemble = assembleH
	}
}

// CreateRun registers a new run and copies the story into its directory.
// An empty title is derived from the story filename.
func (p *Producer) CreateRun(ctx context.Context, storyPath, title string, sceneCount int) (*queue.Run, error) {
	data, err := os.ReadFile(storyPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "read story",
			fmt.Sprintf("Could not read story file %s", storyPath), err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, services.Wrap(services.ErrValidation, "workflow", "read story",
			"Story file is empty", nil)
	}
	if sceneCount < 1 {
		sceneCount = p.cfg.Script.SceneCount
	}
	if title = strings.TrimSpace(title); title == "" {
		title = TitleFromFilename(storyPath)
	}

	run, err := p.store.NewRun(ctx, title, sceneCount)
	if err != nil {
		return nil, err
	}

	run.RunDir = p.cfg.RunDir(run.ID)
	if err := os.MkdirAll(run.RunDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrAssetWrite, "workflow", "create run directory",
			"Could not create run directory", err)
	}
	if err := os.WriteFile(scripting.StoryPath(run.RunDir), data, 0o644); err != nil {
		return nil, services.Wrap(services.ErrAssetWrite, "workflow", "copy story",
			"Could not copy story into run directory", err)
	}
	if err := p.store.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// GenerateScript runs the scripting stage, moving the run from drafting to
// script_ready. A run already at script_ready may regenerate its script as
// long as media generation has not started.
func (p *Producer) GenerateScript(ctx context.Context, runID int64) (*queue.Run, error) {
	run, err := p.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != queue.StatusDrafting && run.Status != queue.StatusScriptReady {
		return nil, services.Wrap(services.ErrValidation, "workflow", "check status",
			fmt.Sprintf("Run #%d is %s; scripting requires drafting or script_ready", runID, run.Status), nil)
	}

	ctx = p.annotate(ctx, runID)
	err = stageexec.Run(ctx, stageexec.Options{
		Logger:     p.logger,
		Store:      p.store,
		Notifier:   p.notifier,
		Handler:    p.scripting,
		StageName:  StageScripting,
		Processing: queue.StatusDrafting,
		Done:       queue.StatusScriptReady,
		Run:        run,
	})
	if err != nil {
		return run, err
	}
	return run, nil
}

// GenerateMedia runs the media stages and final assembly, moving the run from
// script_ready to completed. The run directory is locked for the duration so
// two producers cannot write the same assets.
func (p *Producer) GenerateMedia(ctx context.Context, runID int64) (*queue.Run, error) {
	run, err := p.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != queue.StatusScriptReady {
		return nil, services.Wrap(services.ErrValidation, "workflow", "check status",
			fmt.Sprintf("Run #%d is %s; media generation requires script_ready", runID, run.Status), nil)
	}

	lock := flock.New(filepath.Join(run.RunDir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock run directory: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "workflow", "lock run",
			fmt.Sprintf("Run #%d is already being processed", runID), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	// Starting media generation is the approval step for the script.
	if run.ApprovedAt == nil {
		now := time.Now().UTC()
		run.ApprovedAt = &now
	}

	ctx = p.annotate(ctx, runID)
	steps := []struct {
		name    string
		handler stage.Handler
		done    queue.Status
	}{
		{StageIllustration, p.illustration, queue.StatusGeneratingMedia},
		{StageNarration, p.narration, queue.StatusGeneratingMedia},
		{StageScoring, p.scoring, queue.StatusGeneratingMedia},
		{StageAssemble, p.assemble, queue.StatusCompleted},
	}
	for _, step := range steps {
		err := stageexec.Run(ctx, stageexec.Options{
			Logger:     p.logger,
			Store:      p.store,
			Notifier:   p.notifier,
			Handler:    step.handler,
			StageName:  step.name,
			Processing: queue.StatusGeneratingMedia,
			Done:       step.done,
			Run:        run,
		})
		if err != nil {
			return run, err
		}
	}

	if p.notifier != nil {
		payload := notifications.Payload{
			"title":     run.Title,
			"videoPath": run.VideoPath,
		}
		if stages := run.FallbackList(); len(stages) > 0 {
			payload["fallbackStages"] = strings.Join(stages, ", ")
		}
		if err := p.notifier.Publish(ctx, notifications.EventRunCompleted, payload); err != nil {
			logging.WithContext(ctx, p.logger).Debug("completion notification failed", logging.Error(err))
		}
	}
	return run, nil
}

// Produce drives a run through the full pipeline.
func (p *Producer) Produce(ctx context.Context, runID int64) (*queue.Run, error) {
	if _, err := p.GenerateScript(ctx, runID); err != nil {
		return nil, err
	}
	return p.GenerateMedia(ctx, runID)
}

// Health reports per-stage readiness in pipeline order.
func (p *Producer) Health(ctx context.Context) []stage.Health {
	return []stage.Health{
		p.scripting.HealthCheck(ctx),
		p.illustration.HealthCheck(ctx),
		p.narration.HealthCheck(ctx),
		p.scoring.HealthCheck(ctx),
		p.assemble.HealthCheck(ctx),
	}
}

func (p *Producer) loadRun(ctx context.Context, runID int64) (*queue.Run, error) {
	run, err := p.store.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "load run",
			fmt.Sprintf("Run #%d not found", runID), nil)
	}
	if run.RunDir == "" {
		run.RunDir = p.cfg.RunDir(run.ID)
	}
	return run, nil
}

func (p *Producer) annotate(ctx context.Context, runID int64) context.Context {
	ctx = services.WithRunID(ctx, runID)
	return services.WithRequestID(ctx, uuid.NewString())
}

// TitleFromFilename derives a display title from a story file path.
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled Story"
	}
	return titleCaser.String(base)
}
