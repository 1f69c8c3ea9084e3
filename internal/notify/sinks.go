package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HerbHall/netscope/internal/version"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// LogSink writes notifications to a logger. Destructive ones log at warn.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(_ context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Severity == models.NotificationDestructive {
		s.Logger.Warn("notification", fields...)
		return nil
	}
	s.Logger.Info("notification", fields...)
	return nil
}

// BusSink publishes notifications on TopicToast for the WebSocket stream and
// the MQTT publisher.
type BusSink struct {
	Bus    plugin.Publisher
	Source string
}

func (s BusSink) Notify(ctx context.Context, n Notification) error {
	return s.Bus.Publish(ctx, plugin.Event{
		Topic:     TopicToast,
		Source:    s.Source,
		Timestamp: n.Timestamp,
		Payload:   n,
	})
}

// WebhookConfig configures WebhookSink.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Secret  string            `mapstructure:"secret"` //nolint:gosec // G101: config field name
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// WebhookSink POSTs notifications as JSON. With a secret configured, the
// body's HMAC-SHA256 is sent hex encoded in X-Signature.
type WebhookSink struct {
	cfg    WebhookConfig
	client *http.Client
}

// NewWebhookSink creates a sink. A zero timeout means 10 seconds.
func NewWebhookSink(cfg WebhookConfig) *WebhookSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebhookSink{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (s *WebhookSink) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "NetScope-Webhook/"+version.Short())
	if s.cfg.Secret != "" {
		req.Header.Set("X-Signature", Sign(s.cfg.Secret, body))
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST %s: %w", s.cfg.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook POST %s: status %d", s.cfg.URL, resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
