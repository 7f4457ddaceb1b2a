// Package agent is the background monitor that pairs running game processes
// with live network measurements and streams them to the LagSense backend.
package agent

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultPollInterval is how often the agent samples while idle or playing.
	DefaultPollInterval = 2 * time.Second

	jitterWindowSize = 10
	lossProbeCount   = 5
)

// Agent runs the poll loop. All mutable loop state (current game, ping
// window, alert cooldowns) lives here explicitly so a step is a pure function
// of the struct, not of package globals.
type Agent struct {
	Client   *Client
	Prober   *LatencyProber
	Window   *JitterWindow
	Notifier *Notifier
	Interval time.Duration
	Logger   *slog.Logger

	lastGame      string
	sessionActive bool
}

func New(client *Client, notifier *Notifier, logger *slog.Logger) *Agent {
	return &Agent{
		Client:   client,
		Prober:   NewLatencyProber(),
		Window:   NewJitterWindow(jitterWindowSize),
		Notifier: notifier,
		Interval: DefaultPollInterval,
		Logger:   logger,
	}
}

// Run polls until ctx is canceled, then closes any session still open.
func (a *Agent) Run(ctx context.Context) {
	a.Logger.Info("agent started",
		"backend", a.Client.BaseURL,
		"interval", a.Interval,
		"games", len(GameProcesses))

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if a.sessionActive && a.lastGame != "" {
				// Fresh context: the loop ctx is already dead.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				if err := a.Client.EndSession(shutdownCtx, a.lastGame); err != nil {
					a.Logger.Error("failed to end session on shutdown", "game", a.lastGame, "error", err)
				} else {
					a.Logger.Info("session ended", "game", a.lastGame)
				}
				cancel()
			}
			a.Logger.Info("agent stopped")
			return
		case <-ticker.C:
			a.step(ctx)
		}
	}
}

// step is one poll tick: detect the running game, measure, report.
func (a *Agent) step(ctx context.Context) {
	game := DetectGame()

	// Game switched or closed: end the old session before anything else so
	// the backend never sees samples from two games interleaved.
	if a.sessionActive && a.lastGame != "" && game != a.lastGame {
		if err := a.Client.EndSession(ctx, a.lastGame); err != nil {
			a.Logger.Error("failed to end session", "game", a.lastGame, "error", err)
		} else {
			a.Logger.Info("session ended", "game", a.lastGame)
		}
		a.sessionActive = false
		a.Window.Reset()
	}

	if game == "" {
		return
	}

	latency, err := a.Prober.Measure()
	if err != nil {
		a.Logger.Warn("latency probe failed", "error", err)
		return
	}
	loss := a.Prober.PacketLoss(lossProbeCount)

	a.Window.Add(latency)
	jitter := a.Window.Jitter()

	if err := a.Client.PostStat(ctx, game, latency, jitter, loss); err != nil {
		a.Logger.Error("failed to report sample", "game", game, "error", err)
		return
	}
	a.sessionActive = true
	a.lastGame = game

	a.Logger.Info("sample reported",
		"game", game,
		"ping_ms", latency,
		"jitter_ms", jitter,
		"loss_pct", loss)

	thresholds := a.Client.GameThresholds(ctx, game)
	a.Notifier.CheckAndNotify(latency, jitter, loss, game, thresholds)
}
