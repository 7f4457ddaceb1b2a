package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"not null"`
	DisplayName string    `json:"display_name" gorm:"default:'Gamer'"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// 🔗 Owned records: deleting a user removes their play history and settings
	Sessions []Session     `json:"sessions,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Settings *UserSettings `json:"settings,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// UserSettings holds per-user notification preferences. Alert thresholds per game
// live in GameThreshold rows, not here.
type UserSettings struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`

	NotifyOnPingSpike  bool    `json:"notify_on_ping_spike" gorm:"default:true"`
	NotifyOnJitterHigh bool    `json:"notify_on_jitter_high" gorm:"default:true"`
	NotifyOnPacketLoss bool    `json:"notify_on_packet_loss" gorm:"default:true"`
	PingAlertThreshold float64 `json:"ping_alert_threshold" gorm:"default:150"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// GameThreshold is a user-customized alert profile for a single game.
// At most one row per (user, game); built-in defaults apply when no row exists.
type GameThreshold struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_user_game;not null"`
	Game   string `json:"game" gorm:"uniqueIndex:idx_user_game;not null"`

	Ping   float64 `json:"ping"`   // ms
	Jitter float64 `json:"jitter"` // ms
	Loss   float64 `json:"loss"`   // percent

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
