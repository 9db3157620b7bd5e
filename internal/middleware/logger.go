package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger logs each HTTP request through the global zerolog logger.
func Logger() fiber.Handler {
	return LoggerWith(func() *zerolog.Logger { return &log.Logger })
}

// LoggerWith logs each request with the logger returned by get. Fields:
// request_id, method, path, status, latency (milliseconds).
func LoggerWith(get func() *zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		l := get()
		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = l.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = l.Warn()
		default:
			event = l.Info()
		}

		event.
			Str("request_id", RequestIDFromCtx(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("request")

		return err
	}
}
