package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"lagsense/models"
)

func newSessionService(t *testing.T) *SessionService {
	t.Helper()
	db := newTestDB(t)
	return NewSessionService(db, NewSettingsService(db))
}

var t0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func TestIngestCreatesSessionOnFirstSample(t *testing.T) {
	svc := newSessionService(t)

	sess, err := svc.IngestSample("u1", "valorant", 50, 2, 0, t0)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !sess.StartTime.Equal(t0) {
		t.Errorf("session start %v, want first sample time %v", sess.StartTime, t0)
	}

	open, err := svc.GetOpenSession("u1", "valorant")
	if err != nil {
		t.Fatalf("GetOpenSession failed: %v", err)
	}
	if open == nil || open.ID != sess.ID {
		t.Fatalf("expected open session %s, got %+v", sess.ID, open)
	}
}

func TestIngestRecomputesRunningAverages(t *testing.T) {
	svc := newSessionService(t)

	pings := []float64{50, 55, 52, 61, 48}
	jitters := []float64{2, 3, 2, 4, 1}
	losses := []float64{0, 1, 0, 0, 2}

	var sumP, sumJ, sumL float64
	for i := range pings {
		sess, err := svc.IngestSample("u1", "valorant", pings[i], jitters[i], losses[i],
			t0.Add(time.Duration(i)*2*time.Second))
		if err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}

		sumP += pings[i]
		sumJ += jitters[i]
		sumL += losses[i]
		n := float64(i + 1)

		if math.Abs(sess.AvgPing-sumP/n) > 1e-9 {
			t.Errorf("after sample %d: avg_ping %v, want %v", i+1, sess.AvgPing, sumP/n)
		}
		if math.Abs(sess.AvgJitter-sumJ/n) > 1e-9 {
			t.Errorf("after sample %d: avg_jitter %v, want %v", i+1, sess.AvgJitter, sumJ/n)
		}
		if math.Abs(sess.AvgLoss-sumL/n) > 1e-9 {
			t.Errorf("after sample %d: avg_loss %v, want %v", i+1, sess.AvgLoss, sumL/n)
		}
	}
}

func TestIngestUnknownGame(t *testing.T) {
	svc := newSessionService(t)

	_, err := svc.IngestSample("u1", "minecraft", 50, 2, 0, t0)
	if !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame, got %v", err)
	}

	var count int64
	svc.DB.Model(&models.Session{}).Count(&count)
	if count != 0 {
		t.Errorf("unknown game must not create a session, found %d", count)
	}
}

func TestEndSessionIsNoOpWithoutOpenSession(t *testing.T) {
	svc := newSessionService(t)

	if err := svc.EndSession("u1", "valorant"); err != nil {
		t.Fatalf("ending with nothing open must be a no-op, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := newSessionService(t)

	first, err := svc.IngestSample("u1", "valorant", 50, 2, 0, t0)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if err := svc.EndSession("u1", "valorant"); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	open, err := svc.GetOpenSession("u1", "valorant")
	if err != nil {
		t.Fatalf("GetOpenSession failed: %v", err)
	}
	if open != nil {
		t.Fatal("session should be closed")
	}

	var closed models.Session
	if err := svc.DB.First(&closed, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if closed.EndTime == nil {
		t.Fatal("closed session must carry an end time")
	}

	// Next sample after close starts a fresh session
	second, err := svc.IngestSample("u1", "valorant", 60, 2, 0, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("ingest after close failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("a closed session must never reopen")
	}

	sessions, err := svc.ListSessions("u1", "valorant")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID {
		t.Error("sessions must be ordered most recent first")
	}
}

func TestAtMostOneOpenSessionPerUserGame(t *testing.T) {
	svc := newSessionService(t)

	for i := 0; i < 10; i++ {
		if _, err := svc.IngestSample("u1", "valorant", 50, 2, 0, t0.Add(time.Duration(i)*2*time.Second)); err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}
		if i == 4 {
			if err := svc.EndSession("u1", "valorant"); err != nil {
				t.Fatalf("EndSession failed: %v", err)
			}
		}

		var open int64
		err := svc.DB.Model(&models.Session{}).
			Where("user_id = ? AND game = ? AND end_time IS NULL", "u1", "valorant").
			Count(&open).Error
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if open > 1 {
			t.Fatalf("after step %d: %d open sessions for one (user, game)", i, open)
		}
	}
}

func TestSessionsAreIsolatedPerUserAndGame(t *testing.T) {
	svc := newSessionService(t)

	a, err := svc.IngestSample("u1", "valorant", 50, 2, 0, t0)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	b, err := svc.IngestSample("u1", "cs2", 80, 2, 0, t0)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	c, err := svc.IngestSample("u2", "valorant", 40, 2, 0, t0)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if a.ID == b.ID || a.ID == c.ID || b.ID == c.ID {
		t.Fatal("distinct (user, game) pairs must get distinct sessions")
	}

	if err := svc.EndSession("u1", "valorant"); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if open, _ := svc.GetOpenSession("u1", "cs2"); open == nil {
		t.Error("closing one pair must not touch another game's session")
	}
	if open, _ := svc.GetOpenSession("u2", "valorant"); open == nil {
		t.Error("closing one pair must not touch another user's session")
	}
}
