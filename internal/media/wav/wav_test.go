package wav

import (
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeDurationRoundTrip(t *testing.T) {
	const rate = 44100
	samples := make([]int16, rate*3) // 3 seconds of silence

	data := Encode(samples, rate)
	dur, err := Duration(data)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if dur != 3*time.Second {
		t.Fatalf("duration = %v, want 3s", dur)
	}
}

func TestEncodeHeaderFields(t *testing.T) {
	data := Encode([]int16{0, 1, -1}, 22050)
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad header: %v", data[:12])
	}
	if len(data) != 44+6 {
		t.Fatalf("len = %d", len(data))
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	if _, err := Duration([]byte("not audio at all")); err == nil {
		t.Fatal("expected error for non-wav payload")
	}
}

func TestFileDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteFile(path, make([]int16, 44100), 44100); err != nil {
		t.Fatalf("write: %v", err)
	}
	dur, err := FileDuration(path)
	if err != nil {
		t.Fatalf("file duration: %v", err)
	}
	if dur != time.Second {
		t.Fatalf("duration = %v", dur)
	}
}
