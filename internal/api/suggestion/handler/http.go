package suggestionHandler

import (
	suggestionService "AIService/internal/api/suggestion/service"
	"AIService/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"time"
)

const defaultPredictTimeout = 10 * time.Second

type SuggestionHandler struct {
	log               *logrus.Logger
	middleware        middleware.Middleware
	suggestionService suggestionService.ISuggestionService
	predictTimeout    time.Duration
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss suggestionService.ISuggestionService,
	predictTimeout time.Duration,
) *SuggestionHandler {
	if predictTimeout <= 0 {
		predictTimeout = defaultPredictTimeout
	}

	return &SuggestionHandler{
		log:               log,
		middleware:        middleware,
		suggestionService: ss,
		predictTimeout:    predictTimeout,
	}
}

func (h *SuggestionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/predict", h.Predict)

	srv.Use("/predict/ws", wsMiddleware)
	srv.Get("/predict/ws", websocket.New(h.handlePredictWebSocket))
}
