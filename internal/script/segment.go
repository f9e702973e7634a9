package script

import (
	"fmt"
	"strings"

	"storyreel/internal/services"
)

// Segment splits a story into up to sceneCount scenes without any remote
// calls. Paragraph boundaries are preferred; when the story has fewer
// paragraphs than requested scenes, sentences are distributed evenly instead.
// Narrations are contiguous verbatim spans of the normalized story text, so
// joining them with single spaces reconstructs the input. A short story
// yields fewer scenes than requested, never empty ones.
func Segment(story string, sceneCount int) (*Script, error) {
	if strings.TrimSpace(story) == "" {
		return nil, services.Wrap(services.ErrValidation, "scripting", "segment", "story text is empty", nil)
	}
	if sceneCount < 1 {
		return nil, services.Wrap(services.ErrValidation, "scripting", "segment",
			fmt.Sprintf("scene count must be at least 1, got %d", sceneCount), nil)
	}

	paragraphs := splitParagraphs(story)

	var spans []string
	if len(paragraphs) >= sceneCount {
		spans = groupEvenly(paragraphs, sceneCount)
	} else {
		sentences := SplitSentences(story)
		if len(sentences) <= sceneCount {
			spans = sentences
		} else {
			spans = groupEvenly(sentences, sceneCount)
		}
	}

	scenes := make([]Scene, 0, len(spans))
	for i, span := range spans {
		tone := ClassifyTone(span)
		scenes = append(scenes, Scene{
			Index:       i + 1,
			Description: describeScene(i+1, span),
			Narration:   span,
			Tone:        tone,
			ImagePrompt: BuildImagePrompt(span, tone),
		})
	}

	return &Script{Source: SourceFallback, Scenes: scenes}, nil
}

// splitParagraphs breaks text on blank lines and normalizes the whitespace
// inside each paragraph.
func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, block := range raw {
		normalized := normalizeWhitespace(block)
		if normalized != "" {
			paragraphs = append(paragraphs, normalized)
		}
	}
	return paragraphs
}

// SplitSentences breaks normalized text into sentences, keeping terminal
// punctuation attached. Text without terminal punctuation forms one sentence.
func SplitSentences(text string) []string {
	normalized := normalizeWhitespace(text)
	if normalized == "" {
		return nil
	}

	var sentences []string
	runes := []rune(normalized)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Swallow runs of terminal punctuation ("..." or "?!").
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			if end < len(runes) && runes[end] != ' ' {
				i = end - 1
				continue
			}
			sentence := strings.TrimSpace(string(runes[start:end]))
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			i = end
			start = end + 1
		}
	}
	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// groupEvenly joins consecutive units into count contiguous spans. Earlier
// spans absorb the remainder so sizes differ by at most one.
func groupEvenly(units []string, count int) []string {
	if count >= len(units) {
		cp := make([]string, len(units))
		copy(cp, units)
		return cp
	}
	base := len(units) / count
	remainder := len(units) % count

	spans := make([]string, 0, count)
	cursor := 0
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		spans = append(spans, strings.Join(units[cursor:cursor+size], " "))
		cursor += size
	}
	return spans
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func describeScene(index int, narration string) string {
	const limit = 60
	summary := narration
	if len(summary) > limit {
		cut := strings.LastIndex(summary[:limit], " ")
		if cut <= 0 {
			cut = limit
		}
		summary = strings.TrimRight(summary[:cut], " ,;:") + "..."
	}
	return fmt.Sprintf("Scene %d: %s", index, summary)
}
