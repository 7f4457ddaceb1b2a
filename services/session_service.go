package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lagsense/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService owns the session lifecycle for every (user, game) pair:
// NoSession → Open on the first sample, Open → Closed on an end-session event,
// and a fresh Open session on the next sample after that. At most one session
// per pair is ever open; the idx_one_open_session unique index backs that up.
type SessionService struct {
	DB       *gorm.DB
	Settings *SettingsService
}

func NewSessionService(db *gorm.DB, settings *SettingsService) *SessionService {
	return &SessionService{DB: db, Settings: settings}
}

// IngestSample records one sample for (user, game), opening a session if none
// is open, and recomputes the session's running averages from scratch over all
// of its samples. Full recomputation is O(n) per ingest and deliberate:
// sessions are bounded (one sample every ~2s) and it cannot drift.
func (s *SessionService) IngestSample(userID, game string, ping, jitter, loss float64, timestamp time.Time) (*models.Session, error) {
	game = CanonicalGameKey(game)

	known, err := s.Settings.RecognizedGame(userID, game)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrUnknownGame
	}

	var session *models.Session
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		session, err = openSession(tx, userID, game)
		if err != nil && !errors.Is(err, ErrNoOpenSession) {
			return err
		}
		if session == nil {
			open := true
			session = &models.Session{
				ID:        uuid.NewString(),
				UserID:    userID,
				Game:      game,
				StartTime: timestamp,
				Open:      &open,
				Verdict:   models.VerdictUnknown,
			}
			if err := tx.Create(session).Error; err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
		}

		stat := models.NetworkStat{
			ID:         uuid.NewString(),
			SessionID:  session.ID,
			UserID:     userID,
			Ping:       ping,
			Jitter:     jitter,
			PacketLoss: loss,
			Timestamp:  timestamp,
		}
		if err := tx.Create(&stat).Error; err != nil {
			return fmt.Errorf("failed to store sample: %w", err)
		}

		return s.recomputeAverages(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// recomputeAverages refreshes avg_ping/avg_jitter/avg_loss as plain arithmetic
// means over every sample in the session.
func (s *SessionService) recomputeAverages(tx *gorm.DB, session *models.Session) error {
	var stats []models.NetworkStat
	if err := tx.Where("session_id = ?", session.ID).Find(&stats).Error; err != nil {
		return fmt.Errorf("failed to load session samples: %w", err)
	}
	if len(stats) == 0 {
		return nil
	}

	var sumPing, sumJitter, sumLoss float64
	for _, st := range stats {
		sumPing += st.Ping
		sumJitter += st.Jitter
		sumLoss += st.PacketLoss
	}
	n := float64(len(stats))

	session.AvgPing = sumPing / n
	session.AvgJitter = sumJitter / n
	session.AvgLoss = sumLoss / n

	err := tx.Model(&models.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"avg_ping":   session.AvgPing,
			"avg_jitter": session.AvgJitter,
			"avg_loss":   session.AvgLoss,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update session averages: %w", err)
	}
	return nil
}

// EndSession closes the open session for (user, game). Ending when nothing is
// open is a no-op, not an error; the agent fires end events opportunistically.
func (s *SessionService) EndSession(userID, game string) error {
	return s.endSessionAt(userID, game, time.Now().UTC())
}

func (s *SessionService) endSessionAt(userID, game string, endTime time.Time) error {
	game = CanonicalGameKey(game)

	session, err := openSession(s.DB, userID, game)
	if errors.Is(err, ErrNoOpenSession) {
		return nil
	}
	if err != nil {
		return err
	}

	// Open must become NULL (not false) so the partial-unique trick keeps
	// working; a map update is the only way GORM writes a NULL here.
	err = s.DB.Model(&models.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"end_time": endTime,
			"open":     nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// GetOpenSession returns the open session for (user, game), or nil if none.
func (s *SessionService) GetOpenSession(userID, game string) (*models.Session, error) {
	session, err := openSession(s.DB, userID, CanonicalGameKey(game))
	if errors.Is(err, ErrNoOpenSession) {
		return nil, nil
	}
	return session, err
}

func openSession(tx *gorm.DB, userID, game string) (*models.Session, error) {
	var session models.Session
	err := tx.Where("user_id = ? AND game = ? AND end_time IS NULL", userID, game).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up open session: %w", err)
	}
	return &session, nil
}

// ListSessions returns every session for (user, game), most recent first.
func (s *SessionService) ListSessions(userID, game string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.Where("user_id = ? AND game = ?", userID, CanonicalGameKey(game)).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ReceiveStat handles POST /stat, the agent's sample feed.
func (s *SessionService) ReceiveStat(c *fiber.Ctx) error {
	var stat models.NetworkStatCreate
	if err := c.BodyParser(&stat); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": "invalid stat payload",
		})
	}
	if stat.Timestamp.IsZero() {
		stat.Timestamp = time.Now().UTC()
	}

	session, err := s.IngestSample(stat.UserID, stat.Game, stat.Ping, stat.Jitter, stat.Loss, stat.Timestamp)
	if errors.Is(err, ErrUnknownGame) {
		// Keep the agent streaming; an unknown game is dropped, not failed.
		log.Printf("[STAT] Ignoring sample for unrecognized game %q (user %s)", stat.Game, stat.UserID)
		return c.JSON(fiber.Map{"status": "ignored"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "ok", "session_id": session.ID})
}

// EndSessionHandler handles POST /end-session/:user_id/:game
func (s *SessionService) EndSessionHandler(c *fiber.Ctx) error {
	if err := s.EndSession(c.Params("user_id"), c.Params("game")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ended"})
}

// LiveMetrics handles GET /live/:user_id/:game: the newest sample of the open
// session, or an empty object when nothing is live.
func (s *SessionService) LiveMetrics(c *fiber.Ctx) error {
	session, err := s.GetOpenSession(c.Params("user_id"), c.Params("game"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if session == nil {
		return c.JSON(fiber.Map{})
	}

	var latest models.NetworkStat
	err = s.DB.Where("session_id = ?", session.ID).
		Order("timestamp DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(fiber.Map{})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"ping":      latest.Ping,
		"jitter":    latest.Jitter,
		"loss":      latest.PacketLoss,
		"timestamp": latest.Timestamp,
	})
}

// ListSessionsHandler handles GET /sessions/:user_id/:game
func (s *SessionService) ListSessionsHandler(c *fiber.Ctx) error {
	sessions, err := s.ListSessions(c.Params("user_id"), c.Params("game"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sessions)
}
