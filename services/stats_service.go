package services

import (
	"fmt"

	"lagsense/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

type UserStatistics struct {
	TotalSessions int     `json:"total_sessions"`
	AvgPing       float64 `json:"avg_ping"`
	AvgJitter     float64 `json:"avg_jitter"`
	AvgLoss       float64 `json:"avg_loss"`
	BestGame      string  `json:"best_game"`
	WorstGame     string  `json:"worst_game"`
	TotalPlayTime float64 `json:"total_play_time"` // hours, closed sessions only
}

// ComputeUserStatistics rolls up every session the user has ever played.
//
// Each average only counts sessions where that metric is > 0: a session with
// no samples has all-zero stored averages and would drag the numbers down.
// Such sessions still count toward total_sessions. Best/worst game compare
// per-game means of session avg_ping; ties go to the game encountered first.
func (s *StatsService) ComputeUserStatistics(userID string) (*UserStatistics, error) {
	var sessions []models.Session
	err := s.DB.Where("user_id = ?", userID).
		Order("start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	if len(sessions) == 0 {
		return &UserStatistics{BestGame: "N/A", WorstGame: "N/A"}, nil
	}

	var (
		pingSum, jitterSum, lossSum float64
		pingN, jitterN, lossN       int
		playHours                   float64
	)

	// Map iteration order is randomized, so the first-encountered tie-break
	// needs an explicit game order.
	gameOrder := make([]string, 0, 4)
	gamePings := make(map[string][]float64)

	for _, sess := range sessions {
		if sess.AvgPing > 0 {
			pingSum += sess.AvgPing
			pingN++
		}
		if sess.AvgJitter > 0 {
			jitterSum += sess.AvgJitter
			jitterN++
		}
		if sess.AvgLoss > 0 {
			lossSum += sess.AvgLoss
			lossN++
		}

		if sess.EndTime != nil {
			playHours += sess.EndTime.Sub(sess.StartTime).Hours()
		}

		if _, seen := gamePings[sess.Game]; !seen {
			gameOrder = append(gameOrder, sess.Game)
		}
		gamePings[sess.Game] = append(gamePings[sess.Game], sess.AvgPing)
	}

	stats := &UserStatistics{
		TotalSessions: len(sessions),
		TotalPlayTime: round2(playHours),
		BestGame:      "N/A",
		WorstGame:     "N/A",
	}
	if pingN > 0 {
		stats.AvgPing = round2(pingSum / float64(pingN))
	}
	if jitterN > 0 {
		stats.AvgJitter = round2(jitterSum / float64(jitterN))
	}
	if lossN > 0 {
		stats.AvgLoss = round2(lossSum / float64(lossN))
	}

	bestMean, worstMean := 0.0, 0.0
	for _, game := range gameOrder {
		var sum float64
		for _, p := range gamePings[game] {
			sum += p
		}
		mean := sum / float64(len(gamePings[game]))

		if stats.BestGame == "N/A" || mean < bestMean {
			stats.BestGame = game
			bestMean = mean
		}
		if stats.WorstGame == "N/A" || mean > worstMean {
			stats.WorstGame = game
			worstMean = mean
		}
	}

	return stats, nil
}

// GetStatistics handles GET /statistics/:user_id
func (s *StatsService) GetStatistics(c *fiber.Ctx) error {
	stats, err := s.ComputeUserStatistics(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}

// TotalUsers handles GET /stats/users
func (s *StatsService) TotalUsers(c *fiber.Ctx) error {
	var count int64
	if err := s.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"users": 0, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": count})
}
