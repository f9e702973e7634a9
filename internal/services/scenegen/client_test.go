package scenegen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/script"
	"storyreel/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"})
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + jsonQuote(content) + `},"finish_reason":"stop"}]}`
}

func jsonQuote(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestGenerateScript(t *testing.T) {
	payload := `{"scenes":[{"description":"Opening","narration":"The old house creaked.","tone":"mysterious","image_prompt":"an old house"},{"description":"Entry","narration":"Mary stepped inside, trembling.","tone":"tense","image_prompt":"a girl in a doorway"}]}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(completionBody(payload)))
	})

	result, err := client.GenerateScript(context.Background(), "The old house creaked. Mary stepped inside, trembling.", 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Source != script.SourceRemote {
		t.Fatalf("source = %q", result.Source)
	}
	if len(result.Scenes) != 2 || result.Scenes[1].Tone != script.ToneTense {
		t.Fatalf("scenes = %+v", result.Scenes)
	}
}

func TestGenerateScriptStripsCodeFences(t *testing.T) {
	payload := "```json\n{\"scenes\":[{\"narration\":\"A story.\",\"tone\":\"neutral\"}]}\n```"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(payload)))
	})

	result, err := client.GenerateScript(context.Background(), "A story.", 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Scenes[0].ImagePrompt == "" || result.Scenes[0].Description == "" {
		t.Fatalf("missing defaults: %+v", result.Scenes[0])
	}
}

func TestGenerateScriptCoercesUnknownTone(t *testing.T) {
	payload := `{"scenes":[{"narration":"Her heart pounded as she ran from the danger.","tone":"spooky"}]}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(payload)))
	})

	result, err := client.GenerateScript(context.Background(), "Her heart pounded as she ran from the danger.", 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Scenes[0].Tone != script.ToneTense {
		t.Fatalf("tone = %q, want reclassified %q", result.Scenes[0].Tone, script.ToneTense)
	}
}

func TestGenerateScriptHTTPErrorIsRemote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.GenerateScript(context.Background(), "A story.", 1)
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("err = %v, want remote error", err)
	}
}

func TestGenerateScriptWithoutKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	if client.Enabled() {
		t.Fatal("client without key should be disabled")
	}
	_, err := client.GenerateScript(context.Background(), "A story.", 1)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestDecodeModelJSONExtractsObject(t *testing.T) {
	var target map[string]any
	if err := DecodeModelJSON("Here you go: {\"a\": 1} thanks!", &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target["a"].(float64) != 1 {
		t.Fatalf("target = %v", target)
	}
	if err := DecodeModelJSON("", &target); err == nil {
		t.Fatal("empty payload should fail")
	}
}
