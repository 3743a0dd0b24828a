package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware(ctx *fiber.Ctx) error
	NewCORSMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type Options struct {
	// RateLimitRPS is the sustained per-IP request rate. Zero turns the limiter off.
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

type middleware struct {
	rateLimitter        *rateLimiter
	loggingMiddleware   *loggingMiddleware
	requestIDMiddleware fiber.Handler
	corsMiddleware      fiber.Handler
	log                 *logrus.Logger
}

func New(logger *logrus.Logger, opts Options) Middleware {
	rateLimit := newRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
	logging := newLoggingMiddleware(logger)
	requestID := NewRequestIDMiddleware()
	cors := newCORSMiddleware(opts.AllowedOrigins)

	return &middleware{
		rateLimitter:        rateLimit,
		loggingMiddleware:   logging,
		requestIDMiddleware: requestID,
		corsMiddleware:      cors,
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}

func (m *middleware) NewCORSMiddleware() fiber.Handler {
	return m.corsMiddleware
}
