package services

import (
	"errors"
	"testing"
)

func TestWrapTagsSentinel(t *testing.T) {
	err := Wrap(ErrRemote, "narration", "synthesize clip", "voice api rejected request", errors.New("http 500"))
	if !errors.Is(err, ErrRemote) {
		t.Fatal("wrapped error should match sentinel")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("wrapped error should not match other sentinels")
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"validation": Wrap(ErrValidation, "scripting", "segment", "story text is empty", nil),
		"assembly":   Wrap(ErrAssembly, "assemble", "mux", "ffmpeg exited", errors.New("exit 1")),
		"unknown":    errors.New("plain"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestMessageStripsSentinelPrefix(t *testing.T) {
	err := Wrap(ErrAssetWrite, "illustration", "write png", "disk full", nil)
	got := Message(err)
	if got != "illustration: write png: disk full" {
		t.Fatalf("Message = %q", got)
	}
	if Message(nil) != "" {
		t.Fatal("nil error should yield empty message")
	}
}
