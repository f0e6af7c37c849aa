package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docvault/internal/logger"
)

// Logger logs each HTTP request as one structured line with request_id,
// method, path, status and latency (milliseconds). Server-side failures are
// logged at error level together with their cause.
func Logger(l *zap.Logger) fiber.Handler {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := responseStatus(c, err)
		fields := []zap.Field{
			zap.String("request_id", RequestIDFromCtx(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}

		level := zapcore.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zapcore.ErrorLevel
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
		case status >= fiber.StatusBadRequest:
			level = zapcore.WarnLevel
		}
		l.Log(level, "http_request", fields...)

		return err
	}
}

// LoggerWithWriter is Logger writing JSON lines to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewWithWriter(w, loc))
}
