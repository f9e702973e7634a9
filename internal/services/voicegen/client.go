package voicegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// SampleRate is the PCM sample rate requested from the voice endpoint. It
// matches the local synthesizer so every narration clip shares one format.
const SampleRate = 44100

// Config captures the runtime settings for the text-to-speech endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	VoiceID        string
	TimeoutSeconds int
}

// Client wraps an ElevenLabs-style text-to-speech endpoint. Calls are
// single-shot; any failure routes the caller to the local synthesizer.
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

// NewClient constructs a voice synthesis client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			VoiceID:        strings.TrimSpace(cfg.VoiceID),
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

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize converts narration text to raw 16-bit mono PCM at SampleRate.
// Callers wrap the samples in a WAV container before writing to disk.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "narration", "synthesize clip", "voice api key not configured", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "narration", "synthesize clip", "narration text is empty", nil)
	}

	body, err := json.Marshal(synthesisRequest{Text: text})
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip", "encode request", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.VoiceID + "?output_format=pcm_44100"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip", "read audio", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrRemote, "narration", "synthesize clip", "response carried no audio", nil)
	}
	return audio, nil
}
