package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lagsense/models"
	"lagsense/utils"

	"gorm.io/gorm"
)

// ReportArchiver ships closed sessions (session row + full sample timeline) to
// the R2 bucket as JSON, then flags them archived so they upload once.
type ReportArchiver struct {
	DB *gorm.DB
}

func NewReportArchiver(db *gorm.DB) *ReportArchiver {
	return &ReportArchiver{DB: db}
}

type sessionReport struct {
	Session models.Session       `json:"session"`
	Samples []models.NetworkStat `json:"samples"`
}

// ArchiveClosedSessions uploads pending reports in batches. Returns how many
// sessions were archived.
func (a *ReportArchiver) ArchiveClosedSessions(ctx context.Context) (int, error) {
	var sessions []models.Session
	err := a.DB.Where("end_time IS NOT NULL AND archived = ?", false).
		Order("end_time ASC").
		Limit(50).
		Find(&sessions).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load unarchived sessions: %w", err)
	}

	archived := 0
	for _, sess := range sessions {
		var samples []models.NetworkStat
		err := a.DB.Where("session_id = ?", sess.ID).
			Order("timestamp ASC").
			Find(&samples).Error
		if err != nil {
			return archived, fmt.Errorf("failed to load samples for session %s: %w", sess.ID, err)
		}

		body, err := json.Marshal(sessionReport{Session: sess, Samples: samples})
		if err != nil {
			return archived, fmt.Errorf("failed to encode report for session %s: %w", sess.ID, err)
		}

		key := fmt.Sprintf("reports/%s.json", sess.ID)
		if err := utils.UploadJSONToR2(ctx, key, body); err != nil {
			// Leave the flag unset; the next poll retries this session.
			return archived, err
		}

		err = a.DB.Model(&models.Session{}).Where("id = ?", sess.ID).
			Update("archived", true).Error
		if err != nil {
			return archived, fmt.Errorf("failed to flag session %s archived: %w", sess.ID, err)
		}
		archived++
	}

	return archived, nil
}

// PollSessionArchives runs the archiver on a fixed interval until ctx is done.
func PollSessionArchives(ctx context.Context, archiver *ReportArchiver, pollInterval time.Duration) {
	log.Println("Starting session report archiver...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Session report archiver stopped.")
			return
		case <-ticker.C:
			n, err := archiver.ArchiveClosedSessions(ctx)
			if err != nil {
				log.Printf("[Archiver] %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[Archiver] Uploaded %d session report(s)", n)
			}
		}
	}
}
