package services

import (
	"testing"
	"time"

	"lagsense/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedSession(t *testing.T, db *gorm.DB, userID, game string, avgPing float64, start time.Time, dur time.Duration) {
	t.Helper()

	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Game:      game,
		StartTime: start,
		AvgPing:   avgPing,
		AvgJitter: 3,
		AvgLoss:   0.5,
	}
	if dur > 0 {
		end := start.Add(dur)
		sess.EndTime = &end
	} else {
		open := true
		sess.Open = &open
	}
	if err := db.Create(&sess).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func TestComputeUserStatisticsBestWorstGame(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)

	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	seedSession(t, db, "u1", "valorant", 40, base, time.Hour)
	seedSession(t, db, "u1", "valorant", 50, base.Add(2*time.Hour), 30*time.Minute)
	seedSession(t, db, "u1", "cs2", 90, base.Add(4*time.Hour), time.Hour)

	stats, err := svc.ComputeUserStatistics("u1")
	if err != nil {
		t.Fatalf("ComputeUserStatistics failed: %v", err)
	}

	if stats.TotalSessions != 3 {
		t.Errorf("total_sessions %d, want 3", stats.TotalSessions)
	}
	if stats.BestGame != "valorant" {
		t.Errorf("best_game %q, want valorant", stats.BestGame)
	}
	if stats.WorstGame != "cs2" {
		t.Errorf("worst_game %q, want cs2", stats.WorstGame)
	}
	if stats.AvgPing != 60 { // (40+50+90)/3
		t.Errorf("avg_ping %v, want 60", stats.AvgPing)
	}
	if stats.TotalPlayTime != 2.5 {
		t.Errorf("total_play_time %v, want 2.5", stats.TotalPlayTime)
	}
}

func TestComputeUserStatisticsNoSessions(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	stats, err := svc.ComputeUserStatistics("nobody")
	if err != nil {
		t.Fatalf("ComputeUserStatistics failed: %v", err)
	}
	if stats.TotalSessions != 0 || stats.AvgPing != 0 || stats.TotalPlayTime != 0 {
		t.Errorf("empty user should yield zeros, got %+v", stats)
	}
	if stats.BestGame != "N/A" || stats.WorstGame != "N/A" {
		t.Errorf("empty user should yield N/A games, got %+v", stats)
	}
}

func TestComputeUserStatisticsSkipsZeroPingSessions(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)

	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	seedSession(t, db, "u1", "valorant", 60, base, time.Hour)

	// A sampleless session: counted, but excluded from the averages.
	empty := models.Session{
		ID:        uuid.NewString(),
		UserID:    "u1",
		Game:      "cs2",
		StartTime: base.Add(2 * time.Hour),
	}
	open := true
	empty.Open = &open
	if err := db.Create(&empty).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	stats, err := svc.ComputeUserStatistics("u1")
	if err != nil {
		t.Fatalf("ComputeUserStatistics failed: %v", err)
	}
	if stats.TotalSessions != 2 {
		t.Errorf("total_sessions %d, want 2", stats.TotalSessions)
	}
	if stats.AvgPing != 60 {
		t.Errorf("avg_ping %v, want 60 (zero-ping session excluded)", stats.AvgPing)
	}
}

func TestComputeUserStatisticsOpenSessionsAddNoPlayTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)

	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	seedSession(t, db, "u1", "valorant", 50, base, 90*time.Minute)
	seedSession(t, db, "u1", "valorant", 55, base.Add(3*time.Hour), 0) // still open

	stats, err := svc.ComputeUserStatistics("u1")
	if err != nil {
		t.Fatalf("ComputeUserStatistics failed: %v", err)
	}
	if stats.TotalPlayTime != 1.5 {
		t.Errorf("total_play_time %v, want 1.5 (open session contributes zero)", stats.TotalPlayTime)
	}
}
