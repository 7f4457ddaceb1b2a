package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lagsense/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// DefaultStaleAfter is how long an open session may go without samples before
// the reaper closes it. The agent reports every ~2s and ends sessions itself;
// this only catches sessions orphaned by an agent crash or network drop.
const DefaultStaleAfter = 5 * time.Minute

// StartSessionReaper runs a minutely job that closes abandoned sessions.
func (s *SessionService) StartSessionReaper(staleAfter time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			closed, err := s.CloseStaleSessions(staleAfter)
			if err != nil {
				log.Printf("[Reaper] DB error: %v", err)
				return
			}
			if closed > 0 {
				log.Printf("[Reaper] Closed %d stale session(s)", closed)
			}
		}),
	)
}

// CloseStaleSessions closes every open session whose newest sample (or start
// time, when it never received one) is older than staleAfter. The end time is
// backdated to the last observed activity rather than now, so play-time totals
// don't inflate while a session sat abandoned.
func (s *SessionService) CloseStaleSessions(staleAfter time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)

	var open []models.Session
	err := s.DB.Where("end_time IS NULL").Find(&open).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load open sessions: %w", err)
	}

	closed := 0
	for _, sess := range open {
		lastSeen := sess.StartTime

		var latest models.NetworkStat
		err := s.DB.Where("session_id = ?", sess.ID).
			Order("timestamp DESC").
			First(&latest).Error
		if err == nil {
			lastSeen = latest.Timestamp
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return closed, fmt.Errorf("failed to load latest sample: %w", err)
		}

		if lastSeen.After(cutoff) {
			continue
		}

		if err := s.endSessionAt(sess.UserID, sess.Game, lastSeen); err != nil {
			return closed, err
		}
		closed++
	}

	return closed, nil
}
