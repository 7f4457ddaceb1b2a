package agent

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNotificationLogCooldown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	log := NewNotificationLog(path, 20*time.Minute)

	if !log.CanNotify("high_ping", "valorant") {
		t.Fatal("first alert must be allowed")
	}
	log.Record("high_ping", "valorant")

	if log.CanNotify("high_ping", "valorant") {
		t.Error("repeat alert within the cooldown must be suppressed")
	}
	if !log.CanNotify("packet_loss", "valorant") {
		t.Error("a different alert kind has its own cooldown")
	}
	if !log.CanNotify("high_ping", "cs2") {
		t.Error("a different game has its own cooldown")
	}
}

func TestNotificationLogPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")

	first := NewNotificationLog(path, 20*time.Minute)
	first.Record("high_jitter", "dota2")

	second := NewNotificationLog(path, 20*time.Minute)
	if second.CanNotify("high_jitter", "dota2") {
		t.Error("cooldown must survive an agent restart")
	}
}

func TestNotificationLogCooldownExpires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	log := NewNotificationLog(path, time.Millisecond)

	log.Record("high_ping", "valorant")
	time.Sleep(5 * time.Millisecond)

	if !log.CanNotify("high_ping", "valorant") {
		t.Error("alert must be allowed again once the cooldown elapses")
	}
}

func TestNotifierFiresAboveAlertMargin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	cooldowns := NewNotificationLog(path, 20*time.Minute)
	n := NewNotifier(cooldowns, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	th := Thresholds{Ping: 60, Jitter: 10, Loss: 1.0}

	// 1.2× the threshold: over the grading limit, under the alert margin.
	n.CheckAndNotify(72, 2, 0, "valorant", th)
	if !cooldowns.CanNotify("high_ping", "valorant") {
		t.Error("alert below 1.5× threshold must not consume the cooldown")
	}

	n.CheckAndNotify(95, 2, 0, "valorant", th)
	if cooldowns.CanNotify("high_ping", "valorant") {
		t.Error("alert above 1.5× threshold must record a notification")
	}
}
