package scenegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/script"
	"storyreel/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to the chat API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-style chat completion endpoint for scene breakdown.
// Calls are single-shot: any failure routes the caller to the local
// segmenter, so there is no retry machinery here.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a scene generation client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type scenePayload struct {
	Scenes []struct {
		Description string `json:"description"`
		Narration   string `json:"narration"`
		Tone        string `json:"tone"`
		ImagePrompt string `json:"image_prompt"`
	} `json:"scenes"`
}

// GenerateScript asks the model for a scene breakdown of the story. The
// response is validated structurally; unknown tones are reclassified locally
// so downstream palettes always receive a known label.
func (c *Client) GenerateScript(ctx context.Context, story string, sceneCount int) (*script.Script, error) {
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "scripting", "scene breakdown", "llm api key not configured", nil)
	}
	story = strings.TrimSpace(story)
	if story == "" {
		return nil, services.Wrap(services.ErrValidation, "scripting", "scene breakdown", "story text is empty", nil)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(sceneCount)},
			{Role: "user", Content: story},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	var decoded scenePayload
	if err := DecodeModelJSON(content, &decoded); err != nil {
		return nil, services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "model returned unparseable payload", err)
	}
	if len(decoded.Scenes) == 0 {
		return nil, services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "model returned no scenes", nil)
	}

	result := &script.Script{Source: script.SourceRemote}
	for i, raw := range decoded.Scenes {
		narration := strings.TrimSpace(raw.Narration)
		if narration == "" {
			return nil, services.Wrap(services.ErrRemote, "scripting", "scene breakdown",
				fmt.Sprintf("model scene %d has empty narration", i+1), nil)
		}
		tone := strings.ToLower(strings.TrimSpace(raw.Tone))
		if !script.KnownTone(tone) {
			tone = script.ClassifyTone(narration)
		}
		prompt := strings.TrimSpace(raw.ImagePrompt)
		if prompt == "" {
			prompt = script.BuildImagePrompt(narration, tone)
		}
		description := strings.TrimSpace(raw.Description)
		if description == "" {
			description = fmt.Sprintf("Scene %d", i+1)
		}
		result.Scenes = append(result.Scenes, script.Scene{
			Index:       i + 1,
			Description: description,
			Narration:   narration,
			Tone:        tone,
			ImagePrompt: prompt,
		})
	}

	if err := result.Validate(); err != nil {
		return nil, services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "model script failed validation", err)
	}
	return result, nil
}

func (c *Client) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown",
			fmt.Sprintf("http %d: %s", resp.StatusCode, summarize(string(respBody))), nil)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "decode response", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", services.Wrap(services.ErrRemote, "scripting", "scene breakdown", "model returned empty content", nil)
	}
	return decoded.Choices[0].Message.Content, nil
}

// DecodeModelJSON decodes JSON from a model response, handling common
// formatting quirks such as code fences and surrounding prose.
func DecodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarize(trimmed))
	}

	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarize(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarize(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
