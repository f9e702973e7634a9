package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/services"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings for the image generation endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	TimeoutSeconds int
}

// Client wraps an OpenAI-style images endpoint. Calls are single-shot; any
// failure routes the caller to the local still renderer.
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

// NewClient constructs an image generation client.
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
			Size:           strings.TrimSpace(cfg.Size),
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

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate produces one image for the prompt and returns the raw PNG bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "illustration", "generate image", "image api key not configured", nil)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "illustration", "generate image", "prompt is empty", nil)
	}

	payload := generationRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		N:              1,
		Size:           c.cfg.Size,
		ResponseFormat: "b64_json",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var decoded generationResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "decode response", err)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "response carried no image data", nil)
	}

	img, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "illustration", "generate image", "decode image payload", err)
	}
	return img, nil
}
