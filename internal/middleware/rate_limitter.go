package middleware

import (
	"AIService/pkg/response"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
	"net/http"
	"sync"
	"time"
)

var (
	ErrTooManyRequests = response.NewError(http.StatusTooManyRequests, "Too many requests")
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than limiterIdleTTL are dropped, at most once per limiterSweepInterval.
type rateLimiter struct {
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burstSize int
	lastSweep time.Time
	mutex     *sync.Mutex
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	if burstSize <= 0 {
		burstSize = 1
	}
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      reqRate,
		burstSize: burstSize,
		lastSweep: time.Now(),
		mutex:     &sync.Mutex{},
	}
}

func (r *rateLimiter) enabled() bool {
	return r.rate > 0
}

func (r *rateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	now := time.Now()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if now.Sub(r.lastSweep) >= limiterSweepInterval {
		r.evictIdleLocked(now)
	}

	client, exist := r.clients[ip]
	if !exist {
		client = &clientLimiter{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter
}

func (r *rateLimiter) evictIdle(now time.Time) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.evictIdleLocked(now)
}

func (r *rateLimiter) evictIdleLocked(now time.Time) {
	for ip, client := range r.clients {
		if now.Sub(client.lastSeen) > limiterIdleTTL {
			delete(r.clients, ip)
		}
	}
	r.lastSweep = now
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	if !m.rateLimitter.enabled() {
		return ctx.Next()
	}

	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.WithFields(logrusFields(ctx, m.GetRequestID(ctx))).Warnf("too many requests for IP %s", clientIP)
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": ErrTooManyRequests.Error(),
		})
	}

	return ctx.Next()
}
