package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lagsense/agent"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	// Missing .env is fine; the agent can run on plain environment variables.
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	apiURL := os.Getenv("LAGSENSE_API")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	userID := os.Getenv("LAGSENSE_USER_ID")
	if userID == "" {
		logger.Error("LAGSENSE_USER_ID environment variable not set")
		os.Exit(1)
	}
	token := os.Getenv("LAGSENSE_AGENT_TOKEN")

	client := agent.NewClient(apiURL, userID, token)
	notifyLog := agent.NewNotificationLog(agent.DefaultNotificationLogPath(), agent.DefaultNotifyCooldown)
	notifier := agent.NewNotifier(notifyLog, logger)

	a := agent.New(client, notifier, logger)
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			a.Interval = time.Duration(secs) * time.Second
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Run(ctx)
}
