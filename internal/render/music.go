package render

import (
	"math"
	"strings"
)

// Scale frequencies rooted at middle C.
var (
	cMajor      = []float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88}
	cMinor      = []float64{261.63, 293.66, 311.13, 349.23, 392.00, 415.30, 466.16}
	cPentatonic = []float64{261.63, 293.66, 329.63, 392.00, 440.00}
)

var toneThemes = map[string]string{
	"adventurous": "Epic orchestral adventure music with heroic brass and strings",
	"mysterious":  "Dark ambient mysterious music with subtle piano and ethereal pads",
	"joyful":      "Cheerful uplifting music with acoustic guitar and light percussion",
	"somber":      "Melancholic piano music with soft strings and gentle melody",
	"tense":       "Suspenseful music with rising tension and dramatic percussion",
	"romantic":    "Emotional romantic music with sweeping strings and piano",
	"dramatic":    "Dramatic cinematic music with bold dynamics and low strings",
	"peaceful":    "Gentle ambient background music with subtle piano",
	"neutral":     "Gentle ambient background music with subtle piano",
}

// ThemeForTone maps a scene tone to a music theme description usable both
// as a remote generation prompt and as local synthesis input.
func ThemeForTone(tone string) string {
	if theme, ok := toneThemes[strings.ToLower(tone)]; ok {
		return theme
	}
	return toneThemes["neutral"]
}

// ThemeClip synthesizes a background music track for a theme description.
// Deterministic for identical theme and duration.
func ThemeClip(theme string, seconds float64) []int16 {
	if seconds <= 0 {
		seconds = 15
	}
	rng := seededRand(theme)
	lower := strings.ToLower(theme)

	var scale []float64
	var tempo float64
	var pattern string
	var chords [][]float64

	switch {
	case containsAny(lower, "cheerful", "uplifting", "happy"):
		scale = cMajor
		tempo = 2.5 + rng.Float64()*1.5
		pattern = "arpeggio"
		chords = [][]float64{
			{scale[0], scale[2], scale[4]},
			{scale[3], scale[5], scale[0]},
			{scale[4], scale[6], scale[1]},
			{scale[0], scale[2], scale[4]},
		}
	case containsAny(lower, "melancholic", "sad", "sorrow"):
		scale = cMinor
		tempo = 1.5 + rng.Float64()
		pattern = "chord"
		chords = [][]float64{
			{scale[0], scale[2], scale[4]},
			{scale[5], scale[0], scale[2]},
			{scale[3], scale[5], scale[0]},
			{scale[4], scale[6], scale[1]},
		}
	case containsAny(lower, "mysterious", "dark", "tension", "suspense", "dramatic"):
		scale = cMinor
		tempo = 1 + rng.Float64()
		pattern = "arpeggio"
		chords = [][]float64{
			{scale[0], scale[3], scale[6]},
			{scale[1], scale[4], scale[6]},
			{scale[0], scale[3], scale[6]},
			{scale[4], scale[0], scale[2]},
		}
	case containsAny(lower, "adventure", "epic", "heroic"):
		scale = cMajor
		tempo = 3 + rng.Float64()
		pattern = "mixed"
		chords = [][]float64{
			{scale[0], scale[2], scale[4]},
			{scale[0], scale[2], scale[4]},
			{scale[3], scale[5], scale[0]},
			{scale[4], scale[6], scale[1]},
		}
	default:
		scale = cPentatonic
		tempo = 2 + rng.Float64()
		pattern = "chord"
		chords = [][]float64{
			{scale[0], scale[2], scale[4]},
			{scale[1], scale[3], scale[0]},
			{scale[4], scale[1], scale[3]},
			{scale[0], scale[2], scale[4]},
		}
	}

	const bassOctave = 0.5
	chordDuration := seconds / float64(len(chords))
	waveform := make([]float64, 0, int(SampleRate*seconds))

	for _, chord := range chords {
		var section []float64
		switch pattern {
		case "arpeggio":
			notes := append(append([]float64{}, chord...), chord[0]*2)
			section = arpeggio(notes, chordDuration, tempo)
			mixInto(section, note(chord[0]*bassOctave, chordDuration, 5000, 0.2), 0)
		case "chord":
			section = sustainedChord(chord, chordDuration, 0.3)
			bassDur := chordDuration / 4
			for i := 0; i < 4; i++ {
				start := int(float64(i) * bassDur * SampleRate)
				mixInto(section, note(chord[0]*bassOctave, bassDur, 6000, 0.1), start)
			}
		default: // mixed
			section = sustainedChord(chord, chordDuration/2, 0.2)
			notes := append(append([]float64{}, chord...), chord[0]*2)
			section = append(section, arpeggio(notes, chordDuration/2, tempo)...)
		}
		waveform = append(waveform, section...)
	}

	applyReverb(waveform)
	return normalize(waveform)
}

func note(freq, duration, amplitude, fade float64) []float64 {
	numFrames := int(SampleRate * duration)
	fadeFrames := int(fade * SampleRate)
	wave := make([]float64, numFrames)
	for i := range wave {
		t := float64(i) / SampleRate
		sample := amplitude * math.Sin(2*math.Pi*freq*t)
		if fadeFrames > 0 {
			if i < fadeFrames {
				sample *= float64(i) / float64(fadeFrames)
			} else if i > numFrames-fadeFrames {
				sample *= float64(numFrames-i) / float64(fadeFrames)
			}
		}
		wave[i] = sample
	}
	return wave
}

func sustainedChord(freqs []float64, duration, fade float64) []float64 {
	wave := make([]float64, int(SampleRate*duration))
	for _, freq := range freqs {
		mixInto(wave, note(freq, duration, 4000, fade), 0)
	}
	return wave
}

func arpeggio(freqs []float64, duration, notesPerSecond float64) []float64 {
	noteDuration := 1 / notesPerSecond
	wave := make([]float64, int(SampleRate*duration))
	totalNotes := int(duration * notesPerSecond)
	for i := 0; i < totalNotes; i++ {
		freq := freqs[i%len(freqs)]
		start := int(float64(i) * noteDuration * SampleRate)
		// Notes overlap slightly so the line flows.
		mixInto(wave, note(freq, noteDuration*1.2, 8000, 0.05), start)
	}
	return wave
}

func mixInto(dst, src []float64, offset int) {
	for i, sample := range src {
		if offset+i >= len(dst) {
			break
		}
		dst[offset+i] += sample
	}
}

func applyReverb(wave []float64) {
	const decay = 0.6
	delayFrames := SampleRate / 10 // 100ms
	for i := len(wave) - 1; i >= delayFrames; i-- {
		wave[i] += wave[i-delayFrames] * decay
	}
}

func normalize(wave []float64) []int16 {
	var peak float64
	for _, sample := range wave {
		if math.Abs(sample) > peak {
			peak = math.Abs(sample)
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = 32000 / peak
	}
	out := make([]int16, len(wave))
	for i, sample := range wave {
		out[i] = clampSample(sample * scale)
	}
	return out
}
