package services

import (
	"errors"
	"fmt"
	"log"

	"lagsense/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ThresholdProfile are the acceptable limits a session is graded against.
type ThresholdProfile struct {
	Ping   float64 `json:"ping"`
	Jitter float64 `json:"jitter"`
	Loss   float64 `json:"loss"`
}

// Built-in per-game defaults.
var defaultThresholds = map[string]ThresholdProfile{
	"valorant": {Ping: 60, Jitter: 10, Loss: 1.0},
	"cs2":      {Ping: 70, Jitter: 15, Loss: 1.5},
	"dota2":    {Ping: 90, Jitter: 20, Loss: 2.0},
	"fortnite": {Ping: 80, Jitter: 18, Loss: 2.0},
	"discord":  {Ping: 50, Jitter: 8, Loss: 0.5},
}

var gameKeys = []string{"valorant", "cs2", "dota2", "fortnite", "discord"}

// fallbackThresholds grade games nobody configured limits for.
var fallbackThresholds = ThresholdProfile{Ping: 100, Jitter: 20, Loss: 5}

// CanonicalGameKey normalizes a game name the same way on every write path so
// "CS2" and "cs2" hit the same threshold row.
func CanonicalGameKey(game string) string {
	return slug.Make(game)
}

type SettingsService struct {
	DB *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{DB: db}
}

// Resolve returns the thresholds for (user, game): the user's custom row if one
// exists, else the built-in default for that game, else the generic fallback.
func (s *SettingsService) Resolve(userID, game string) (ThresholdProfile, error) {
	game = CanonicalGameKey(game)

	var row models.GameThreshold
	err := s.DB.Where("user_id = ? AND game = ?", userID, game).First(&row).Error
	if err == nil {
		return ThresholdProfile{Ping: row.Ping, Jitter: row.Jitter, Loss: row.Loss}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fallbackThresholds, fmt.Errorf("failed to load threshold row: %w", err)
	}

	if def, ok := defaultThresholds[game]; ok {
		return def, nil
	}
	return fallbackThresholds, nil
}

// RecognizedGame reports whether samples for this game can be graded at all.
// Games outside this set are dropped by ingest.
func (s *SettingsService) RecognizedGame(userID, game string) (bool, error) {
	game = CanonicalGameKey(game)
	if _, ok := defaultThresholds[game]; ok {
		return true, nil
	}

	var n int64
	err := s.DB.Model(&models.GameThreshold{}).
		Where("user_id = ? AND game = ?", userID, game).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check threshold row: %w", err)
	}
	return n > 0, nil
}

// UpdateThreshold upserts the user's custom profile for a game. Returns false
// (not an error) when the game is outside the recognized set.
func (s *SettingsService) UpdateThreshold(userID, game string, profile ThresholdProfile) (bool, error) {
	game = CanonicalGameKey(game)
	if _, ok := defaultThresholds[game]; !ok {
		return false, nil
	}

	var row models.GameThreshold
	err := s.DB.Where("user_id = ? AND game = ?", userID, game).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.GameThreshold{
			ID:     uuid.NewString(),
			UserID: userID,
			Game:   game,
			Ping:   profile.Ping,
			Jitter: profile.Jitter,
			Loss:   profile.Loss,
		}
		if err := s.DB.Create(&row).Error; err != nil {
			return false, fmt.Errorf("failed to create threshold row: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load threshold row: %w", err)
	}

	row.Ping = profile.Ping
	row.Jitter = profile.Jitter
	row.Loss = profile.Loss
	if err := s.DB.Save(&row).Error; err != nil {
		return false, fmt.Errorf("failed to update threshold row: %w", err)
	}
	return true, nil
}

// UserThresholds returns every known game's effective thresholds for the user
// (defaults overlaid with custom rows) in stable game order.
func (s *SettingsService) UserThresholds(userID string) (map[string]ThresholdProfile, error) {
	out := make(map[string]ThresholdProfile, len(defaultThresholds))
	for _, g := range gameKeys {
		out[g] = defaultThresholds[g]
	}

	var rows []models.GameThreshold
	if err := s.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load threshold rows: %w", err)
	}
	for _, r := range rows {
		out[r.Game] = ThresholdProfile{Ping: r.Ping, Jitter: r.Jitter, Loss: r.Loss}
	}
	return out, nil
}

func (s *SettingsService) getOrCreateSettings(userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.DB.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.UserSettings{
			ID:                 uuid.NewString(),
			UserID:             userID,
			NotifyOnPingSpike:  true,
			NotifyOnJitterHigh: true,
			NotifyOnPacketLoss: true,
			PingAlertThreshold: 150,
		}
		if err := s.DB.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create user settings: %w", err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user settings: %w", err)
	}
	return &settings, nil
}

// GetSettings handles GET /settings/:user_id
func (s *SettingsService) GetSettings(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	thresholds, err := s.UserThresholds(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	settings, err := s.getOrCreateSettings(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"thresholds": thresholds,
		"notifications": fiber.Map{
			"notify_on_ping_spike":  settings.NotifyOnPingSpike,
			"notify_on_jitter_high": settings.NotifyOnJitterHigh,
			"notify_on_packet_loss": settings.NotifyOnPacketLoss,
			"ping_alert_threshold":  settings.PingAlertThreshold,
		},
	})
}

// UpdateSettings handles PUT /settings/:user_id
func (s *SettingsService) UpdateSettings(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	var payload models.SettingsUpdate
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "invalid settings payload",
		})
	}

	for game, t := range payload.Thresholds {
		profile := ThresholdProfile{Ping: 100, Jitter: 20, Loss: 5}
		if t.Ping != nil {
			profile.Ping = *t.Ping
		}
		if t.Jitter != nil {
			profile.Jitter = *t.Jitter
		}
		if t.Loss != nil {
			profile.Loss = *t.Loss
		}

		ok, err := s.UpdateThreshold(userID, game, profile)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		}
		if !ok {
			log.Printf("[SETTINGS] Ignoring thresholds for unrecognized game %q (user %s)", game, userID)
		}
	}

	if payload.Notifications != nil {
		if err := s.UpdateNotificationSettings(userID, *payload.Notifications); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "Settings updated"})
}

func (s *SettingsService) UpdateNotificationSettings(userID string, update models.NotificationUpdate) error {
	settings, err := s.getOrCreateSettings(userID)
	if err != nil {
		return err
	}

	if update.NotifyOnPingSpike != nil {
		settings.NotifyOnPingSpike = *update.NotifyOnPingSpike
	}
	if update.NotifyOnJitterHigh != nil {
		settings.NotifyOnJitterHigh = *update.NotifyOnJitterHigh
	}
	if update.NotifyOnPacketLoss != nil {
		settings.NotifyOnPacketLoss = *update.NotifyOnPacketLoss
	}
	if update.PingAlertThreshold != nil {
		settings.PingAlertThreshold = *update.PingAlertThreshold
	}

	if err := s.DB.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save notification settings: %w", err)
	}
	return nil
}
