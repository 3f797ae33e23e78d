package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const settingsKey = "apimon:settings"

// SettingsService persists the dashboard settings blob (monitors, API keys,
// notification channels, scheduling knobs) in the key/value store.
type SettingsService struct {
	store  cache.Store
	logger logger.Logger
}

func NewSettingsService(store cache.Store, log logger.Logger) *SettingsService {
	return &SettingsService{store: store, logger: log}
}

// Get returns the stored settings, or the defaults when nothing is saved or
// the stored blob cannot be decoded.
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	b, err := s.store.Get(ctx, settingsKey)
	if err != nil {
		return models.DefaultSettings()
	}
	var settings models.Settings
	if err := json.Unmarshal(b, &settings); err != nil {
		s.logger.Warn("stored settings are corrupt, using defaults", "error", err)
		return models.DefaultSettings()
	}
	return settings.Sanitize()
}

// Save sanitizes and persists the settings blob, returning the sanitized
// result.
func (s *SettingsService) Save(ctx context.Context, settings models.Settings) (models.Settings, error) {
	clean := settings.Sanitize()
	b, err := json.Marshal(clean)
	if err != nil {
		return models.Settings{}, fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.store.Set(ctx, settingsKey, b, 0); err != nil {
		return models.Settings{}, fmt.Errorf("persist settings: %w", err)
	}
	s.logger.Info("settings saved", "monitors", len(clean.Monitors))
	return clean, nil
}
