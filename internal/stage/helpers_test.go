package stage

import (
	"errors"
	"path/filepath"
	"testing"

	"storyreel/internal/script"
	"storyreel/internal/services"
)

func TestLoadScript_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.json")
	src := &script.Script{
		Title:  "Example",
		Source: script.SourceFallback,
		Scenes: []script.Scene{
			{Index: 1, Description: "Scene 1", Narration: "A thing happened.", Tone: "neutral"},
		},
	}
	if err := src.WriteFile(path); err != nil {
		t.Fatalf("write script: %v", err)
	}

	got, err := LoadScript(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Example" || len(got.Scenes) != 1 {
		t.Fatalf("unexpected script: %+v", got)
	}
}

func TestLoadScript_EmptyPath(t *testing.T) {
	_, err := LoadScript("")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadScript_Missing(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
