package scenegen

import (
	"fmt"
	"strings"

	"storyreel/internal/script"
)

func systemPrompt(sceneCount int) string {
	tones := strings.Join(script.Tones(), ", ")
	return fmt.Sprintf(`You split short stories into scenes for a narrated slideshow.

Respond with a single JSON object of the form:
{"scenes": [{"description": "...", "narration": "...", "tone": "...", "image_prompt": "..."}]}

Rules:
- Produce exactly %d scenes unless the story is too short, in which case produce fewer.
- Narrations must be verbatim, contiguous, non-overlapping spans of the story text, in order, covering the whole story.
- tone must be one of: %s.
- image_prompt describes a single illustration for the scene.
- description is a one-line summary.
Return only JSON.`, sceneCount, tones)
}
