// Package render produces deterministic local media assets. Each generator
// seeds math/rand from its text input, so identical inputs always yield
// byte-identical output. These are the fallbacks used when a remote media
// API is unconfigured or fails.
package render

import (
	"hash/fnv"
	"math/rand"
	"strings"
)

// SampleRate is the rate for all locally synthesized audio. Remote voice
// clips are requested at the same rate so every clip in a run matches.
const SampleRate = 44100

func seededRand(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
