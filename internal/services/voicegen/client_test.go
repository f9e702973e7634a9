package voicegen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyreel/internal/services"
)

func TestSynthesizeRequestsPCM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/voice-1") {
			t.Errorf("path = %q, want voice id suffix", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "pcm_44100" {
			t.Errorf("output_format = %q", r.URL.Query().Get("output_format"))
		}
		w.Write([]byte{1, 0, 2, 0})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "voice-1"})
	audio, err := client.Synthesize(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(audio) != 4 {
		t.Fatalf("audio = %v", audio)
	}
}

func TestSynthesizeEmptyTextIsValidation(t *testing.T) {
	client := NewClient(Config{APIKey: "key", BaseURL: "http://127.0.0.1:1", VoiceID: "v"})
	_, err := client.Synthesize(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestSynthesizeHTTPErrorIsRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v"})
	_, err := client.Synthesize(context.Background(), "Hello.")
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("err = %v", err)
	}
}
