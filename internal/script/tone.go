package script

import "strings"

// Tone labels shared across scene classification, still palettes, and music
// moods. The order doubles as the tie-break priority during classification.
const (
	ToneMysterious  = "mysterious"
	ToneJoyful      = "joyful"
	ToneSomber      = "somber"
	ToneTense       = "tense"
	ToneRomantic    = "romantic"
	ToneAdventurous = "adventurous"
	ToneDramatic    = "dramatic"
	TonePeaceful    = "peaceful"
	ToneNeutral     = "neutral"
)

var toneOrder = []string{
	ToneMysterious,
	ToneJoyful,
	ToneSomber,
	ToneTense,
	ToneRomantic,
	ToneAdventurous,
	ToneDramatic,
	TonePeaceful,
}

var toneLexicon = map[string][]string{
	ToneMysterious:  {"mystery", "mysterious", "shadow", "shadows", "dark", "darkness", "secret", "strange", "unknown", "creaked", "creak", "fog", "mist", "whisper", "whispered", "eerie", "silence"},
	ToneJoyful:      {"happy", "happiness", "joy", "joyful", "laugh", "laughed", "laughter", "smile", "smiled", "bright", "celebrate", "celebration", "delight", "cheer", "sunny", "dance", "danced"},
	ToneSomber:      {"sad", "sadness", "grief", "loss", "lost", "mourn", "mourning", "tears", "wept", "lonely", "alone", "gray", "sorrow", "faded", "empty", "goodbye"},
	ToneTense:       {"fear", "afraid", "trembling", "trembled", "danger", "dangerous", "threat", "panic", "scream", "screamed", "chase", "chased", "nervous", "pounded", "froze", "ran"},
	ToneRomantic:    {"love", "loved", "heart", "kiss", "kissed", "embrace", "embraced", "tender", "longing", "rose", "roses", "beloved"},
	ToneAdventurous: {"journey", "quest", "travel", "traveled", "explore", "explored", "mountain", "mountains", "sea", "ocean", "discover", "discovered", "brave", "expedition", "map"},
	ToneDramatic:    {"battle", "storm", "fire", "flames", "clash", "fury", "thunder", "shattered", "war", "destroyed", "collapse"},
	TonePeaceful:    {"calm", "quiet", "gentle", "gently", "serene", "soft", "softly", "rest", "rested", "meadow", "breeze", "still", "warm"},
}

// ClassifyTone scores text against the tone lexicons and returns the best
// label. Ties resolve to the earlier tone in the fixed order; no hits yield
// neutral. Classification is deterministic for a given input.
func ClassifyTone(text string) string {
	words := tokenize(text)
	if len(words) == 0 {
		return ToneNeutral
	}

	counts := make(map[string]int, len(words))
	for _, word := range words {
		counts[word]++
	}

	bestTone := ToneNeutral
	bestScore := 0
	for _, tone := range toneOrder {
		score := 0
		for _, keyword := range toneLexicon[tone] {
			score += counts[keyword]
		}
		if score > bestScore {
			bestScore = score
			bestTone = tone
		}
	}
	return bestTone
}

// Tones returns the full label set, neutral last.
func Tones() []string {
	out := make([]string, 0, len(toneOrder)+1)
	out = append(out, toneOrder...)
	return append(out, ToneNeutral)
}

// KnownTone reports whether a label belongs to the fixed tone set.
func KnownTone(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == ToneNeutral {
		return true
	}
	for _, tone := range toneOrder {
		if tone == label {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
}
