package render

import (
	"math"
	"strings"
	"time"
)

const (
	speechAmplitude = 20000
	wordsPerMinute  = 150
	minSpeechSecs   = 3.0
	syllableRate    = 4.0 // syllables per second
)

// SpeechDuration estimates how long a narration clip runs at a typical
// reading pace, with a three second floor.
func SpeechDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	seconds := math.Max(minSpeechSecs, float64(words)/wordsPerMinute*60)
	return time.Duration(seconds * float64(time.Second))
}

// SpeechClip synthesizes a speech-like tone pattern for a narration. The
// pitch contour tracks the sentiment of the text and the result is
// deterministic for identical input.
func SpeechClip(text string) []int16 {
	duration := SpeechDuration(text).Seconds()
	rng := seededRand(text)

	lower := strings.ToLower(text)
	var baseFreq float64
	var contour string
	switch {
	case containsAny(lower, "happy", "joy", "exciting", "thrill"):
		baseFreq = 350 + rng.Float64()*90
		contour = "rising"
	case containsAny(lower, "sad", "sorrow", "tragic", "gloomy"):
		baseFreq = 200 + rng.Float64()*80
		contour = "falling"
	case containsAny(lower, "tension", "fear", "scary", "danger"):
		baseFreq = 300 + rng.Float64()*50
		contour = "wavering"
	default:
		baseFreq = 280 + rng.Float64()*40
		contour = "neutral"
	}

	numSamples := int(SampleRate * duration)
	samples := make([]int16, numSamples)
	fadeSecs := math.Min(0.3, duration/10)

	for i := 0; i < numSamples; i++ {
		t := float64(i) / SampleRate

		// Syllable envelope: quick attack, slower release.
		syllablePos := math.Mod(t*syllableRate, 1.0)
		var envelope float64
		if syllablePos < 0.4 {
			envelope = 0.95 + 0.05*math.Sin(syllablePos*2*math.Pi/0.4)
		} else {
			envelope = 0.85 * (1 - (syllablePos-0.4)/0.6)
		}

		var freq float64
		switch contour {
		case "rising":
			freq = baseFreq * (1 + 0.1*t/duration)
		case "falling":
			freq = baseFreq * (1 + 0.1*(1-t/duration))
		case "wavering":
			freq = baseFreq * (1 + 0.1*math.Sin(2*math.Pi*t/1.5))
		default:
			freq = baseFreq
		}

		vibrato := math.Sin(2 * math.Pi * 5 * t)
		freq *= 1 + 0.01*vibrato

		sample := envelope * speechAmplitude * math.Sin(2*math.Pi*freq*t)

		// Articulation burst on alternating half seconds.
		if int(t*2)%2 == 0 {
			sample += 0.15 * speechAmplitude * math.Sin(2*math.Pi*12*t)
		}

		sample += (rng.Float64()*2 - 1) * 0.03 * speechAmplitude

		switch {
		case t < fadeSecs:
			sample *= t / fadeSecs
		case t > duration-fadeSecs:
			sample *= (duration - t) / fadeSecs
		}

		samples[i] = clampSample(sample)
	}
	return samples
}

func clampSample(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
