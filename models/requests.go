package models

import "time"

// Request payloads accepted by the HTTP layer.

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserUpdate struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// NetworkStatCreate is what the background agent POSTs to /stat every poll tick.
type NetworkStatCreate struct {
	UserID    string    `json:"user_id"`
	Game      string    `json:"game"`
	Ping      float64   `json:"ping"`
	Jitter    float64   `json:"jitter"`
	Loss      float64   `json:"loss"`
	Timestamp time.Time `json:"timestamp"`
}

type ThresholdUpdate struct {
	Ping   *float64 `json:"ping"`
	Jitter *float64 `json:"jitter"`
	Loss   *float64 `json:"loss"`
}

type NotificationUpdate struct {
	NotifyOnPingSpike  *bool    `json:"notify_on_ping_spike"`
	NotifyOnJitterHigh *bool    `json:"notify_on_jitter_high"`
	NotifyOnPacketLoss *bool    `json:"notify_on_packet_loss"`
	PingAlertThreshold *float64 `json:"ping_alert_threshold"`
}

type SettingsUpdate struct {
	Thresholds    map[string]ThresholdUpdate `json:"thresholds"`
	Notifications *NotificationUpdate        `json:"notifications"`
}
