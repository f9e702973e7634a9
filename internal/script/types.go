package script

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Scene is one unit of the slideshow: a narration span with presentation hints.
type Scene struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Narration   string `json:"narration"`
	Tone        string `json:"tone"`
	ImagePrompt string `json:"image_prompt"`
}

// Script is the ordered scene list produced for a story, plus provenance.
type Script struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	Scenes []Scene `json:"scenes"`
}

// Script provenance values.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Validate checks structural requirements on a script: at least one scene,
// sequential 1-based indexes, and non-empty narrations.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	for i, scene := range s.Scenes {
		if scene.Index != i+1 {
			return fmt.Errorf("scene %d has index %d, want %d", i, scene.Index, i+1)
		}
		if strings.TrimSpace(scene.Narration) == "" {
			return fmt.Errorf("scene %d has empty narration", scene.Index)
		}
		if strings.TrimSpace(scene.Tone) == "" {
			return fmt.Errorf("scene %d has empty tone", scene.Index)
		}
	}
	return nil
}

// WriteFile persists the script as indented JSON.
func (s *Script) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// ReadFile loads a previously persisted script.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reconstruct joins scene narrations back into the normalized story text.
// For fallback scripts this round-trips the input exactly.
func (s *Script) Reconstruct() string {
	parts := make([]string, 0, len(s.Scenes))
	for _, scene := range s.Scenes {
		parts = append(parts, scene.Narration)
	}
	return strings.Join(parts, " ")
}
