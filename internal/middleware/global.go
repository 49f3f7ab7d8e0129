package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/errs"
	"github.com/deppfellow/cafe-menu/internal/response"
	"github.com/deppfellow/cafe-menu/internal/server"
	"github.com/deppfellow/cafe-menu/internal/sqlerr"
)

// GlobalMiddlewares groups “global” middleware and the global error handler,
// sharing the app container so they can read config such as CORS origins.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo’s CORS middleware configured by server.cors_allowed_origins.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	})
}

// statusOf returns the status the global error handler will write for err.
//
// When a handler returns an error Echo has not written the final status by
// the time the request logger runs, so it is derived from the error instead.
// Reference: https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
func statusOf(err error, fallback int) int {
	var httpErr *errs.HTTPError
	var validationErr *errs.ValidationError
	var echoErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	}

	// Storage errors are translated the same way the error handler does.
	translated := sqlerr.HandleError(err)
	switch {
	case errors.As(translated, &validationErr):
		return http.StatusBadRequest
	case errors.As(translated, &httpErr):
		return httpErr.Status
	default:
		return fallback
	}
}

// RequestLogger produces one “API” log line per request, with the level
// chosen by status: 5xx Error, 4xx Warn, otherwise Info.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status
			if v.Error != nil {
				statusCode = statusOf(v.Error, http.StatusInternalServerError)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns handler panics into errors for the global error handler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

// Secure returns Echo’s secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Every error returned by a handler or middleware ends up here and is
// written as the response envelope:
//   - *errs.ValidationError -> 400 with the field messages
//   - *errs.HTTPError       -> its own status, code and message
//   - *echo.HTTPError       -> route misses become NOT_FOUND, others keep their status
//   - anything else goes through sqlerr, and falls back to a generic 500
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	// The original error is logged; the client only sees the translated one.
	originalErr := err

	var httpErr *errs.HTTPError
	var validationErr *errs.ValidationError
	var echoErr *echo.HTTPError

	if !errors.As(err, &httpErr) && !errors.As(err, &validationErr) && !errors.As(err, &echoErr) {
		err = sqlerr.HandleError(err)
	}

	if errors.As(err, &validationErr) {
		global.handleValidationError(c, originalErr, validationErr)
		return
	}

	global.handleDomainError(c, originalErr, toHTTPError(err))
}

// toHTTPError normalizes err into a domain error.
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		switch {
		case echoErr.Code == http.StatusNotFound:
			return errs.NewNotFoundError()
		case echoErr.Code == http.StatusBadRequest:
			return errs.NewBadRequestError("", nil)
		case echoErr.Code == http.StatusTooManyRequests:
			return errs.NewTooManyRequestsError()
		case echoErr.Code < http.StatusInternalServerError:
			return &errs.HTTPError{
				Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
				Message: http.StatusText(echoErr.Code),
				Status:  echoErr.Code,
			}
		}
	}

	return errs.NewInternalServerError()
}

// handleValidationError writes the 400 envelope carrying field messages.
func (global *GlobalMiddlewares) handleValidationError(c echo.Context, originalErr error, validationErr *errs.ValidationError) {
	body := response.ValidationFailed(validationErr)

	GetLogger(c).Warn().
		Err(originalErr).
		Int("status", http.StatusBadRequest).
		Str("error_code", body.Code).
		Interface("validation", body.Validation).
		Msg(body.Message)

	global.write(c, http.StatusBadRequest, body)
}

// handleDomainError writes the envelope for a domain error.
// Server errors are logged with their stack.
func (global *GlobalMiddlewares) handleDomainError(c echo.Context, originalErr error, httpErr *errs.HTTPError) {
	logger := GetLogger(c)

	var e *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		e = logger.Error().Stack()
	} else {
		e = logger.Warn()
	}

	e.Err(originalErr).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	global.write(c, httpErr.Status, response.Error(httpErr))
}

func (global *GlobalMiddlewares) write(c echo.Context, status int, body response.APIResponse) {
	if c.Response().Committed {
		return
	}

	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		GetLogger(c).Error().Err(err).Msg("failed to write error response")
	}
}
