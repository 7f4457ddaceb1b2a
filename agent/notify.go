package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultNotifyCooldown is the minimum gap between repeated alerts of the same
// kind for the same game.
const DefaultNotifyCooldown = 20 * time.Minute

// NotificationLog tracks when each (kind, game) alert last fired, persisted as
// a small JSON file so restarts don't re-spam the user.
type NotificationLog struct {
	path     string
	cooldown time.Duration
}

func NewNotificationLog(path string, cooldown time.Duration) *NotificationLog {
	return &NotificationLog{path: path, cooldown: cooldown}
}

// DefaultNotificationLogPath is ~/.lagsense/notifications.json.
func DefaultNotificationLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".lagsense", "notifications.json")
	}
	return filepath.Join(home, ".lagsense", "notifications.json")
}

func (l *NotificationLog) load() map[string]time.Time {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return map[string]time.Time{}
	}
	var entries map[string]time.Time
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]time.Time{}
	}
	return entries
}

func (l *NotificationLog) save(entries map[string]time.Time) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(l.path, data, 0o644)
}

// CanNotify reports whether the cooldown for (kind, game) has elapsed.
func (l *NotificationLog) CanNotify(kind, game string) bool {
	last, ok := l.load()[kind+"_"+game]
	if !ok {
		return true
	}
	return time.Since(last) > l.cooldown
}

// Record remembers that an alert of this kind just fired for this game.
func (l *NotificationLog) Record(kind, game string) {
	entries := l.load()
	entries[kind+"_"+game] = time.Now()
	l.save(entries)
}

// Thresholds are the per-game limits the agent compares live samples against.
type Thresholds struct {
	Ping   float64 `json:"ping"`
	Jitter float64 `json:"jitter"`
	Loss   float64 `json:"loss"`
}

// Notifier raises rate-limited alerts when live metrics blow well past the
// session-grading thresholds. Delivery is a log line; hooking up a desktop
// toast backend stays outside this binary.
type Notifier struct {
	Log    *NotificationLog
	Logger *slog.Logger
}

func NewNotifier(log *NotificationLog, logger *slog.Logger) *Notifier {
	return &Notifier{Log: log, Logger: logger}
}

// CheckAndNotify alerts on any metric exceeding 1.5× its threshold; alerts
// fire later than a session turns "Bad" on purpose, to cut noise.
func (n *Notifier) CheckAndNotify(ping, jitter, loss float64, game string, th Thresholds) {
	var issues []string

	if ping > th.Ping*1.5 && n.Log.CanNotify("high_ping", game) {
		issues = append(issues, fmt.Sprintf("Critical ping: %.1fms", ping))
		n.Log.Record("high_ping", game)
	}
	if jitter > th.Jitter*1.5 && n.Log.CanNotify("high_jitter", game) {
		issues = append(issues, fmt.Sprintf("High jitter: %.2fms", jitter))
		n.Log.Record("high_jitter", game)
	}
	if loss > th.Loss*1.5 && n.Log.CanNotify("packet_loss", game) {
		issues = append(issues, fmt.Sprintf("Packet loss: %.2f%%", loss))
		n.Log.Record("packet_loss", game)
	}

	for _, issue := range issues {
		n.Logger.Warn("network alert", "game", game, "issue", issue)
	}
}
