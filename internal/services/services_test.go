package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

func TestSettingsDefaultsWhenEmpty(t *testing.T) {
	svc := NewSettingsService(cache.NewMemoryStore(logger.NewNop()), logger.NewNop())

	got := svc.Get(context.Background())
	assert.Equal(t, "1.0", got.SchemaVersion)
	assert.Empty(t, got.Monitors)
	assert.InDelta(t, 0.2, got.Synthetics.JitterPct, 1e-9)
}

func TestSettingsSaveSanitizesAndRoundTrips(t *testing.T) {
	store := cache.NewMemoryStore(logger.NewNop())
	svc := NewSettingsService(store, logger.NewNop())
	ctx := context.Background()

	in := models.DefaultSettings()
	in.Monitors = []models.Monitor{
		{Name: "orders", URL: "https://example.com/health", Method: "get", IntervalMs: 10},
		{Name: "no-url"}, // dropped
	}
	in.Synthetics.JitterPct = 2.0

	saved, err := svc.Save(ctx, in)
	require.NoError(t, err)
	require.Len(t, saved.Monitors, 1)
	assert.Equal(t, "GET", saved.Monitors[0].Method)
	assert.Equal(t, 200, saved.Monitors[0].ExpectedStatus)
	assert.Equal(t, 60000, saved.Monitors[0].IntervalMs)
	assert.InDelta(t, 0.9, saved.Synthetics.JitterPct, 1e-9)

	got := svc.Get(ctx)
	assert.Equal(t, saved, got)
}

func TestSettingsCorruptBlobFallsBackToDefaults(t *testing.T) {
	store := cache.NewMemoryStore(logger.NewNop())
	require.NoError(t, store.Set(context.Background(), "apimon:settings", "{not json", 0))

	svc := NewSettingsService(store, logger.NewNop())
	got := svc.Get(context.Background())
	assert.Equal(t, models.DefaultSettings().SchemaVersion, got.SchemaVersion)
}

func TestNotifierPostsToChannels(t *testing.T) {
	var slackBody, hookBody []byte
	slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slackBody, _ = io.ReadAll(r.Body)
	}))
	defer slack.Close()
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hookBody, _ = io.ReadAll(r.Body)
	}))
	defer hook.Close()

	n := NewNotifier(logger.NewNop())
	n.Notify(context.Background(), models.AlertChannels{
		SlackWebhookURL: slack.URL,
		WebhookURL:      hook.URL,
	}, "error", "Probe failed", "checkout is unhealthy")

	var slackPayload map[string]string
	require.NoError(t, json.Unmarshal(slackBody, &slackPayload))
	assert.Contains(t, slackPayload["text"], "Probe failed")
	assert.Contains(t, slackPayload["text"], "[*ERROR*]")

	var hookPayload map[string]interface{}
	require.NoError(t, json.Unmarshal(hookBody, &hookPayload))
	assert.Equal(t, "alert", hookPayload["event"])
	assert.Equal(t, "error", hookPayload["severity"])
}

func TestNotifierTestReportsPerChannel(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	n := NewNotifier(logger.NewNop())
	results := n.Test(context.Background(), models.AlertChannels{
		SlackWebhookURL: ok.URL,
		WebhookURL:      bad.URL,
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
}

func TestNotifierSwallowsFailures(t *testing.T) {
	n := NewNotifier(logger.NewNop())
	// Unreachable URL must not panic or error out.
	n.Notify(context.Background(), models.AlertChannels{
		WebhookURL: "http://127.0.0.1:1/hook",
	}, "warning", "t", "m")
}
