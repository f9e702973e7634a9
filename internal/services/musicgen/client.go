package musicgen

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

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings for the music generation endpoint.
type Config struct {
	APIKey          string
	BaseURL         string
	DurationSeconds int
	TimeoutSeconds  int
}

// Client wraps a track generation endpoint that returns a download URL.
// Calls are single-shot; any failure routes the caller to the procedural
// theme composer.
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

// NewClient constructs a music generation client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimSpace(cfg.BaseURL),
			DurationSeconds: cfg.DurationSeconds,
			TimeoutSeconds:  cfg.TimeoutSeconds,
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

type composeRequest struct {
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
}

type composeResponse struct {
	AudioURL string `json:"audio_url"`
}

// Compose requests a background track for the prompt and downloads the
// resulting audio bytes.
func (c *Client) Compose(ctx context.Context, prompt string) ([]byte, error) {
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "scoring", "compose track", "music api key not configured", nil)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "scoring", "compose track", "prompt is empty", nil)
	}

	body, err := json.Marshal(composeRequest{Prompt: prompt, Duration: c.cfg.DurationSeconds})
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var decoded composeResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "decode response", err)
	}
	if strings.TrimSpace(decoded.AudioURL) == "" {
		return nil, services.Wrap(services.ErrRemote, "scoring", "compose track", "response carried no track url", nil)
	}

	return c.download(ctx, decoded.AudioURL)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "download track", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "download track", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "scoring", "download track",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 128<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "scoring", "download track", "read audio", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrRemote, "scoring", "download track", "track was empty", nil)
	}
	return audio, nil
}
