package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const defaultBodyLimit = 50 << 20

// NewFiber builds the app. Input text has no length cap of its own, so
// bodyLimit only guards memory; zero means 50 MB.
func NewFiber(logger *logrus.Logger, bodyLimit int) *fiber.App {
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	app := fiber.New(
		fiber.Config{
			AppName:               "AI Suggestion Service",
			BodyLimit:             bodyLimit,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				code := fiber.StatusInternalServerError
				if fe, ok := err.(*fiber.Error); ok {
					code = fe.Code
				}
				if code >= fiber.StatusInternalServerError {
					logger.WithFields(logrus.Fields{
						"path":  c.Path(),
						"error": err.Error(),
					}).Error("Unhandled error")
				}
				return c.Status(code).JSON(fiber.Map{"error": err.Error()})
			},
		})

	return app
}
