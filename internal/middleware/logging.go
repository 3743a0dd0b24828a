package middleware

import (
	"AIService/pkg/log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const maxLoggedTextLength = 64

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type loggingMiddleware struct {
	logger *logrus.Logger
}

func newLoggingMiddleware(logger *logrus.Logger) *loggingMiddleware {
	return &loggingMiddleware{
		logger: logger,
	}
}

func (m *middleware) NewLoggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	requestID := m.GetRequestID(c)

	c.Locals(log.RequestIDKey, requestID)

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	fields := logrusFields(c, requestID)
	fields["status"] = status
	fields["latency_ms"] = time.Since(start).Milliseconds()
	fields["user_agent"] = c.Get(fiber.HeaderUserAgent)
	fields["response_size"] = len(c.Response().Body())

	if body := c.Request().Body(); len(body) > 0 {
		fields["request_body"] = sanitizeRequestBody(body)
	}

	entry := m.loggingMiddleware.logger.WithFields(fields)
	switch {
	case status >= fiber.StatusInternalServerError:
		entry.Error("Server error")
	case status >= fiber.StatusBadRequest:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}

func logrusFields(c *fiber.Ctx, requestID string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     c.Method(),
		"path":       c.Path(),
		"ip":         c.IP(),
	}
}

// sanitizeRequestBody shortens free text so customer messages are not written
// to the log in full.
func sanitizeRequestBody(body []byte) string {
	var jsonBody map[string]interface{}
	if err := json.Unmarshal(body, &jsonBody); err != nil || jsonBody == nil {
		return "[non-JSON body]"
	}

	for key, value := range jsonBody {
		if text, ok := value.(string); ok {
			if runes := []rune(text); len(runes) > maxLoggedTextLength {
				jsonBody[key] = string(runes[:maxLoggedTextLength]) + "..."
			}
		}
		if isSensitiveField(key) {
			jsonBody[key] = "[SECRET]"
		}
	}

	sanitized, err := json.Marshal(jsonBody)
	if err != nil {
		return "[sanitization-failed]"
	}

	return string(sanitized)
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range []string{"password", "token", "secret", "authorization", "pin", "card_number", "cvv"} {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}
