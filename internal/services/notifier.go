package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const notifyTimeout = 5 * time.Second

// Notifier dispatches alert notifications to the configured webhook
// channels. Dispatch is fire-and-forget: failures are logged and swallowed
// so the ingestion path is never delayed.
type Notifier struct {
	client *resty.Client
	logger logger.Logger
}

func NewNotifier(log logger.Logger) *Notifier {
	return &Notifier{
		client: resty.New().SetTimeout(notifyTimeout),
		logger: log,
	}
}

// Notify posts the alert to every configured channel.
func (n *Notifier) Notify(ctx context.Context, channels models.AlertChannels, severity, title, message string) {
	if channels.SlackWebhookURL != "" {
		if err := n.postSlack(ctx, channels.SlackWebhookURL, severity, title, message); err != nil {
			n.logger.Warn("slack notification failed", "error", err)
		}
	}
	if channels.WebhookURL != "" {
		if err := n.postWebhook(ctx, channels.WebhookURL, severity, title, message); err != nil {
			n.logger.Warn("webhook notification failed", "error", err)
		}
	}
}

// ChannelResult reports the outcome of a per-channel delivery test.
type ChannelResult struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// Test sends a test message to each configured channel and reports the
// per-channel outcome.
func (n *Notifier) Test(ctx context.Context, channels models.AlertChannels) []ChannelResult {
	results := []ChannelResult{}
	if channels.SlackWebhookURL != "" {
		r := ChannelResult{Channel: "slack", OK: true}
		if err := n.postSlack(ctx, channels.SlackWebhookURL, "info", "Test notification", "Notification channels are working"); err != nil {
			r.OK = false
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	if channels.WebhookURL != "" {
		r := ChannelResult{Channel: "webhook", OK: true}
		if err := n.postWebhook(ctx, channels.WebhookURL, "info", "Test notification", "Notification channels are working"); err != nil {
			r.OK = false
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func (n *Notifier) postSlack(ctx context.Context, url, severity, title, message string) error {
	payload := map[string]string{
		"text": fmt.Sprintf("[*%s*] %s — %s", strings.ToUpper(severity), title, message),
	}
	resp, err := n.client.R().SetContext(ctx).SetBody(payload).Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode())
	}
	return nil
}

func (n *Notifier) postWebhook(ctx context.Context, url, severity, title, message string) error {
	payload := map[string]interface{}{
		"event":    "alert",
		"severity": severity,
		"title":    title,
		"message":  message,
		"ts":       time.Now().UnixMilli(),
	}
	resp, err := n.client.R().SetContext(ctx).SetBody(payload).Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %d", resp.StatusCode())
	}
	return nil
}
