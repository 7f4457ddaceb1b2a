package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AgentAuthMiddleware validates the Bearer token the background agent sends.
// When AGENT_TOKEN is unset the check is disabled; a local single-user
// install has no secret to share.
func AgentAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("AGENT_TOKEN")
	if expectedToken == "" {
		log.Println("⚠️  AGENT_TOKEN not set, agent endpoints are unauthenticated")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [AGENT_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "agent authentication token missing",
			})
		}

		// Parse "Bearer <token>"; accept a raw token too
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			log.Printf("❌ [AGENT_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid agent authentication token",
			})
		}

		return c.Next()
	}
}
