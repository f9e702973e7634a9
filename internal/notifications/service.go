package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
)

const userAgent = "Storyreel/0.1.0"

// Event identifies a notification-worthy pipeline moment.
type Event string

const (
	EventScriptReady  Event = "script_ready"
	EventRunCompleted Event = "run_completed"
	EventError        Event = "error"
	EventTest         Event = "test"
)

// Payload carries event-specific fields used to render the message.
type Payload map[string]any

// Service publishes pipeline events to the configured channel.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventScriptReady:
		title := stringField(payload, "title")
		scenes := stringField(payload, "scenes")
		body := fmt.Sprintf("Script ready: %s", title)
		if scenes != "" {
			body = fmt.Sprintf("%s (%s scenes)", body, scenes)
		}
		return message{
			title: "Storyreel - Script Ready",
			body:  body,
			tags:  []string{"storyreel", "script", "ready"},
		}, true
	case EventRunCompleted:
		title := stringField(payload, "title")
		body := fmt.Sprintf("Video ready: %s", title)
		if video := stringField(payload, "videoPath"); video != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, video)
		}
		if fallback := stringField(payload, "fallbackStages"); fallback != "" {
			body = fmt.Sprintf("%s\nLocal fallback used: %s", body, fallback)
		}
		return message{
			title:    "Storyreel - Complete",
			body:     body,
			tags:     []string{"storyreel", "run", "completed"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := stringField(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		switch v := payload["error"].(type) {
		case error:
			builder.WriteString(strings.TrimSpace(v.Error()))
		case string:
			builder.WriteString(strings.TrimSpace(v))
		default:
			builder.WriteString("unknown")
		}
		return message{
			title:    "Storyreel - Error",
			body:     builder.String(),
			tags:     []string{"storyreel", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Storyreel - Test",
			body:     "Notification system test",
			tags:     []string{"storyreel", "test"},
			priority: "low",
		}, true
	default:
		// Per-stage chatter stays out of the notification channel.
		return message{}, false
	}
}

func stringField(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key]; ok {
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s)
		case fmt.Stringer:
			return strings.TrimSpace(s.String())
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
