package script

import (
	"fmt"
	"strings"
)

var promptStopwords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"into": {}, "over": {}, "under": {}, "then": {}, "when": {}, "while": {},
	"were": {}, "was": {}, "had": {}, "has": {}, "have": {}, "his": {},
	"her": {}, "their": {}, "they": {}, "she": {}, "him": {}, "them": {},
	"there": {}, "here": {}, "been": {}, "would": {}, "could": {}, "said": {},
}

const maxPromptKeywords = 6

// BuildImagePrompt derives a deterministic illustration prompt from a
// narration span and its tone.
func BuildImagePrompt(narration, tone string) string {
	keywords := extractKeywords(narration, maxPromptKeywords)
	if len(keywords) == 0 {
		return fmt.Sprintf("%s digital illustration, storybook style", tone)
	}
	return fmt.Sprintf("%s digital illustration of %s, storybook style, cinematic lighting",
		tone, strings.Join(keywords, ", "))
}

// extractKeywords picks salient words in narration order: longer than three
// characters, not a stopword, first occurrence only.
func extractKeywords(text string, limit int) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range tokenize(text) {
		if len(word) <= 3 {
			continue
		}
		if _, skip := promptStopwords[word]; skip {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == limit {
			break
		}
	}
	return keywords
}
