package middleware

import (
	"AIService/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"time"
)

const (
	RequestIDKey = "X-Request-ID"

	maxRequestIDLength = 64
)

// NewRequestIDMiddleware keeps a well formed incoming X-Request-ID so callers can
// correlate their logs with ours. Anything else is replaced by a fresh ULID
// before it reaches the logs or the response headers.
func NewRequestIDMiddleware() fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if !validRequestID(requestID) {
			requestID, _ = utilsInstance.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.', ch == ':':
		default:
			return false
		}
	}
	return true
}
