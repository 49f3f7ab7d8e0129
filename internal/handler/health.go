package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/middleware"
	"github.com/deppfellow/cafe-menu/internal/server"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// DefaultHealthCheckTimeout bounds each dependency ping when config leaves it unset.
const DefaultHealthCheckTimeout = 5 * time.Second

// HealthHandler reports whether the service and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns 200 when the database answers and 503 otherwise.
//
// Redis is reported but never fails the check: the menu cache is optional.
// observability.health_checks selects which dependencies are pinged.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	checkCfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]any{}
	body := map[string]any{
		"status":      StatusHealthy,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	if checkCfg.Enabled && checkCfg.Has("database") {
		dbCheck := h.check(c.Request().Context(), &logger, "database", func(ctx context.Context) error {
			if h.server.DB == nil {
				return errNotConfigured
			}
			return h.server.DB.Ping(ctx)
		})
		checks["database"] = dbCheck
		if dbCheck["status"] != StatusHealthy {
			isHealthy = false
		}
	}

	if checkCfg.Enabled && checkCfg.Has("redis") && h.server.Redis != nil {
		checks["redis"] = h.check(c.Request().Context(), &logger, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if !isHealthy {
		body["status"] = StatusUnhealthy

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordFailure("overall", map[string]any{
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, body)
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, body)
}

var errNotConfigured = errors.New("not configured")

func (h *HealthHandler) check(parent context.Context, logger *zerolog.Logger, name string, ping func(ctx context.Context) error) map[string]any {
	timeout := h.server.Config.Observability.HealthChecks.Timeout
	if timeout <= 0 {
		timeout = DefaultHealthCheckTimeout
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	started := time.Now()
	err := ping(ctx)
	elapsed := time.Since(started)

	if err != nil {
		logger.Error().
			Err(err).
			Str("check", name).
			Dur("response_time", elapsed).
			Msg("dependency health check failed")

		h.recordFailure(name, map[string]any{
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})

		return map[string]any{
			"status":        StatusUnhealthy,
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}
	}

	logger.Debug().
		Str("check", name).
		Dur("response_time", elapsed).
		Msg("dependency health check passed")

	return map[string]any{
		"status":        StatusHealthy,
		"response_time": elapsed.String(),
	}
}

// recordFailure sends a HealthCheckError custom event when New Relic is on.
func (h *HealthHandler) recordFailure(checkType string, attrs map[string]any) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	attrs["check_type"] = checkType
	attrs["operation"] = "health_check"
	attrs["error_type"] = checkType + "_unhealthy"

	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
