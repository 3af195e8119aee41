package handlers

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pelusa-v/pelusa-chat/internal/logging"
)

// NewApp builds the Fiber application with every chat route mounted.
func NewApp(h *ChatHandler, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "pelusa-chat",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.RequestLogger(logger))

	app.Get("/health", h.HealthHandler)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws", WebSocketUpgrade)
	app.Get("/ws", websocket.New(h.ServeWS))

	app.Get("/api/users", h.ActiveUsersHandler)

	api := app.Group("/api/chat")
	api.Get("/rooms", h.RoomsHandler)
	api.Post("/rooms", h.CreateRoomHandler)
	api.Delete("/rooms/:id", h.DeleteRoomHandler)
	api.Get("/history/:room", h.HistoryHandler)
	api.Get("/pms/:displayName", h.PrivateRoomsHandler)

	return app
}

// ErrorHandler renders every error as {"error": code, "message": text}.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		msg := err.Error()
		if code == fiber.StatusInternalServerError {
			msg = "Server Error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   errorCode(code),
			"message": msg,
		})
	}
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusUpgradeRequired:
		return "upgrade_required"
	case fiber.StatusServiceUnavailable:
		return "unavailable"
	}
	return "internal_error"
}
