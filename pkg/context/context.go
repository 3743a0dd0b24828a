package context

import (
	"context"
	"github.com/gofiber/fiber/v2"
	"time"
)

const (
	RequestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, ok := c.Locals(requestIDHeader).(string)
	if !ok || requestID == "" {
		requestID = c.Get(requestIDHeader)
	}

	return FromRequestID(requestID)
}

func FromRequestID(requestID string) context.Context {
	if requestID == "" {
		requestID = "unknown"
	}
	return WithRequestID(context.Background(), requestID)
}

// WithTimeout derives a request-scoped context; a non-positive timeout means no deadline.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
