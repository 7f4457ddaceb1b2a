package handlers

import (
	"lagsense/middleware"
	"lagsense/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	app.Post("/register", authService.Register)
	app.Post("/login", authService.Login)
	app.Get("/user/:id", authService.GetUser)
	app.Put("/profile/:id", authService.UpdateProfile)
}

func SetupStatRoutes(app *fiber.App, sessionService *services.SessionService, verdictService *services.VerdictService, statsService *services.StatsService) {
	// Agent-facing routes, token-gated when AGENT_TOKEN is configured
	agentAuth := middleware.AgentAuthMiddleware()
	app.Post("/stat", agentAuth, sessionService.ReceiveStat)
	app.Post("/end-session/:user_id/:game", agentAuth, sessionService.EndSessionHandler)

	// Dashboard-facing routes
	app.Get("/live/:user_id/:game", sessionService.LiveMetrics)
	app.Get("/sessions/:user_id/:game", sessionService.ListSessionsHandler)
	app.Get("/session/:user_id/:game/:session_id", verdictService.AnalyzeSessionHandler)
	app.Get("/statistics/:user_id", statsService.GetStatistics)
	app.Get("/stats/users", statsService.TotalUsers)
}

func SetupSettingsRoutes(app *fiber.App, settingsService *services.SettingsService) {
	app.Get("/settings/:user_id", settingsService.GetSettings)
	app.Put("/settings/:user_id", settingsService.UpdateSettings)
}
