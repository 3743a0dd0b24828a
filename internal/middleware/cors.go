package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"strings"
)

var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://vibank-voice-agent.netlify.app",
}

func newCORSMiddleware(origins []string) fiber.Handler {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	return cors.New(cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		ExposeHeaders: RequestIDKey,
	})
}
