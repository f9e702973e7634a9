package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/services"
)

func TestGenerateDecodesPayload(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(png) + `"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "m", Size: "1024x1024"})
	got, err := client.Generate(context.Background(), "an old house")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(got) != string(png) {
		t.Fatalf("bytes = %v", got)
	}
}

func TestGenerateHTTPErrorIsRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("err = %v, want remote error", err)
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Enabled() {
		t.Fatal("client without key should be disabled")
	}
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
