package models

import "time"

const (
	VerdictUnknown = "Unknown"
	VerdictGood    = "Good"
	VerdictAverage = "Average"
	VerdictBad     = "Bad"
)

// Session is one contiguous play interval for a (user, game) pair.
// EndTime == nil means the session is still open.
//
// Open mirrors the lifecycle state purely for the schema constraint: it is
// non-nil (true) while the session is open and NULL once closed, so the
// composite unique index (user_id, game, open) lets the database reject a
// second concurrent open session for the same pair (unique indexes ignore
// NULL rows, so any number of closed sessions can coexist).
type Session struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index;not null;uniqueIndex:idx_one_open_session"`
	Game   string `json:"game" gorm:"index;not null;uniqueIndex:idx_one_open_session"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Open      *bool      `json:"-" gorm:"uniqueIndex:idx_one_open_session"`

	// Verdict is overwritten on every analysis request: sessions are graded
	// against thresholds as they are *now*, not as they were when recorded.
	Verdict string `json:"verdict" gorm:"default:'Unknown'"`

	// Recomputed from all samples on every ingest
	AvgPing   float64 `json:"avg_ping" gorm:"default:0"`
	AvgJitter float64 `json:"avg_jitter" gorm:"default:0"`
	AvgLoss   float64 `json:"avg_loss" gorm:"default:0"`

	// Set once the closed session's report has been uploaded to object storage
	Archived bool `json:"archived" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// 🔗 Samples belong to exactly one session and die with it
	Stats []NetworkStat `json:"stats,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// NetworkStat is a single network-quality sample. Immutable once recorded.
type NetworkStat struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	SessionID string  `json:"session_id" gorm:"index;not null"`
	UserID    string  `json:"user_id" gorm:"index;not null"`
	Ping      float64 `json:"ping" gorm:"default:0"`
	Jitter    float64 `json:"jitter" gorm:"default:0"`

	PacketLoss float64 `json:"loss" gorm:"default:0"`

	Timestamp time.Time `json:"timestamp" gorm:"index"`
}
