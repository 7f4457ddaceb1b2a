package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"lagsense/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Reason strings surfaced to the dashboard. Fixed wording, fixed evaluation
// order; every predicate that fires contributes its line.
const (
	ReasonHighLatency = "High base latency – distant servers or inefficient ISP routing"
	ReasonHighJitter  = "High jitter – unstable routing or Wi-Fi interference"
	ReasonPacketLoss  = "Packet loss detected – ISP congestion or poor routing"
	ReasonPingSpikes  = "Ping spikes – background downloads or wireless drops"
	ReasonNoIssues    = "No major network issues detected"
)

var verdictScale = [3]string{models.VerdictGood, models.VerdictAverage, models.VerdictBad}

type TimelinePoint struct {
	Time   time.Time `json:"time"`
	Ping   float64   `json:"ping"`
	Jitter float64   `json:"jitter"`
	Loss   float64   `json:"loss"`
}

type VerdictResult struct {
	Verdict   string          `json:"verdict"`
	Optimizer bool            `json:"optimizer"`
	Reasons   []string        `json:"reasons"`
	AvgPing   float64         `json:"avg_ping"`
	AvgJitter float64         `json:"avg_jitter"`
	AvgLoss   float64         `json:"avg_loss"`
	Timeline  []TimelinePoint `json:"timeline"`
}

// ComputeVerdict grades a session's samples against a threshold profile.
//
// The verdict counts how many of the three averages exceed their threshold:
// 0 → Good, 1 → Average, 2 or 3 → Bad. The optimizer flag fires only on
// jitter or loss; a high but stable ping is not something an optimizer can
// fix. Pure except for its caller persisting the label afterwards.
func ComputeVerdict(stats []models.NetworkStat, thresholds ThresholdProfile) (*VerdictResult, error) {
	if len(stats) == 0 {
		return nil, ErrEmptySession
	}

	var sumPing, sumJitter, sumLoss float64
	minPing, maxPing := stats[0].Ping, stats[0].Ping
	for _, st := range stats {
		sumPing += st.Ping
		sumJitter += st.Jitter
		sumLoss += st.PacketLoss
		if st.Ping < minPing {
			minPing = st.Ping
		}
		if st.Ping > maxPing {
			maxPing = st.Ping
		}
	}
	n := float64(len(stats))
	avgPing := sumPing / n
	avgJitter := sumJitter / n
	avgLoss := sumLoss / n

	score := 0
	if avgPing > thresholds.Ping {
		score++
	}
	if avgJitter > thresholds.Jitter {
		score++
	}
	if avgLoss > thresholds.Loss {
		score++
	}
	if score > 2 {
		score = 2
	}

	var reasons []string
	if avgPing > thresholds.Ping && avgJitter <= thresholds.Jitter {
		reasons = append(reasons, ReasonHighLatency)
	}
	if avgJitter > thresholds.Jitter {
		reasons = append(reasons, ReasonHighJitter)
	}
	if avgLoss > thresholds.Loss {
		reasons = append(reasons, ReasonPacketLoss)
	}
	if maxPing-minPing > thresholds.Ping {
		reasons = append(reasons, ReasonPingSpikes)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonNoIssues)
	}

	timeline := make([]TimelinePoint, 0, len(stats))
	for _, st := range stats {
		timeline = append(timeline, TimelinePoint{
			Time:   st.Timestamp,
			Ping:   st.Ping,
			Jitter: st.Jitter,
			Loss:   st.PacketLoss,
		})
	}

	return &VerdictResult{
		Verdict:   verdictScale[score],
		Optimizer: avgJitter > thresholds.Jitter || avgLoss > thresholds.Loss,
		Reasons:   reasons,
		AvgPing:   avgPing,
		AvgJitter: avgJitter,
		AvgLoss:   avgLoss,
		Timeline:  timeline,
	}, nil
}

type VerdictService struct {
	DB       *gorm.DB
	Settings *SettingsService
}

func NewVerdictService(db *gorm.DB, settings *SettingsService) *VerdictService {
	return &VerdictService{DB: db, Settings: settings}
}

// AnalyzeSession grades one session and persists the verdict label back onto
// it. Thresholds are resolved at call time, so editing settings re-grades
// history on the next analysis. That is the product behavior, not a bug.
func (v *VerdictService) AnalyzeSession(userID, game, sessionID string) (*VerdictResult, error) {
	game = CanonicalGameKey(game)

	var session models.Session
	err := v.DB.Where("id = ? AND user_id = ? AND game = ?", sessionID, userID, game).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stats []models.NetworkStat
	err = v.DB.Where("session_id = ?", session.ID).
		Order("timestamp ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session samples: %w", err)
	}

	thresholds, err := v.Settings.Resolve(userID, game)
	if err != nil {
		return nil, err
	}

	result, err := ComputeVerdict(stats, thresholds)
	if err != nil {
		return nil, err
	}

	err = v.DB.Model(&models.Session{}).Where("id = ?", session.ID).
		Update("verdict", result.Verdict).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist verdict: %w", err)
	}

	return result, nil
}

// AnalyzeSessionHandler handles GET /session/:user_id/:game/:session_id
func (v *VerdictService) AnalyzeSessionHandler(c *fiber.Ctx) error {
	result, err := v.AnalyzeSession(c.Params("user_id"), c.Params("game"), c.Params("session_id"))
	if errors.Is(err, ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if errors.Is(err, ErrEmptySession) {
		return c.JSON(fiber.Map{"error": "No data in session"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"verdict":    result.Verdict,
		"optimizer":  result.Optimizer,
		"reasons":    result.Reasons,
		"avg_ping":   round2(result.AvgPing),
		"avg_jitter": round2(result.AvgJitter),
		"avg_loss":   round2(result.AvgLoss),
		"timeline":   result.Timeline,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
