package handler

import (
	"reflect"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/cafe-menu/internal/middleware"
	"github.com/deppfellow/cafe-menu/internal/response"
	"github.com/deppfellow/cafe-menu/internal/server"
	"github.com/deppfellow/cafe-menu/internal/validation"
)

// Handler is the base handler type that holds shared application dependencies.
//
// It is embedded by concrete handlers (MenuHandler, HealthHandler, ...) so
// they can reach config, logger, db and redis through *server.Server.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc represents a typed endpoint function that:
//
// - receives a bound and validated request payload (Req)
// - returns a response payload (Res) or an error
//
// Req is a POINTER type, e.g. *model.CreateMenuRequest, because binding
// populates it in place.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler defines how a successful handler result is written to the
// HTTP response and which observability attributes go with it.
type ResponseHandler interface {
	// Handle writes the HTTP response for the given result.
	Handle(c echo.Context, result any) error

	// GetOperation returns an operation name used for structured logging.
	GetOperation() string

	// AddAttributes attaches New Relic attributes based on the result.
	AddAttributes(txn *newrelic.Transaction, result any)
}

// EnvelopeResponseHandler writes the result inside the success envelope.
type EnvelopeResponseHandler struct {
	status  int
	message string
}

func (h EnvelopeResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, response.Success(h.message, result))
}

func (h EnvelopeResponseHandler) GetOperation() string {
	return "handler"
}

func (h EnvelopeResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	// http.status_code is already set by tracing middleware (EnhanceTracing).
	txn.AddAttribute("response.message", h.message)
}

// newRequest returns a fresh zero value of the pointer type of proto.
//
// Requests are shared by route registration; every call gets its own copy
// so concurrent requests never bind into the same struct.
func newRequest[Req validation.Validatable](proto Req) Req {
	return reflect.New(reflect.TypeOf(proto).Elem()).Interface().(Req)
}

// handleRequest binds, validates and runs one request, then writes the
// result with responseHandler.
//
// Each phase is timed, logged on the request logger and, when a New Relic
// transaction is present, recorded as "<phase>.status" and
// "<phase>.duration_ms" attributes. Errors are returned untouched for the
// global error handler to format.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	// nil unless the nrecho middleware started a transaction.
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	validated := time.Now()
	err := validation.BindAndValidate(c, req)
	validationDuration := time.Since(validated)
	recordPhase(txn, "validation", validationDuration, err)

	if err != nil {
		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")
		return err
	}

	handled := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handled)
	recordPhase(txn, "handler", handlerDuration, err)

	if txn != nil {
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
	}

	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")
		return err
	}

	if txn != nil {
		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// recordPhase adds the status and duration of one pipeline phase to txn and
// notices err with its stack.
func recordPhase(txn *newrelic.Transaction, phase string, d time.Duration, err error) {
	if txn == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failed"
		txn.NoticeError(nrpkgerrors.Wrap(err))
	}

	txn.AddAttribute(phase+".status", status)
	txn.AddAttribute(phase+".duration_ms", d.Milliseconds())
}

// Handle wraps a typed handler with binding, validation, logging and tracing,
// and writes its result in the success envelope with status and message.
//
// Usage:
//
//	group.POST("", handler.Handle(h, h.CreateMenu, http.StatusCreated, "메뉴가 생성되었습니다.", &model.CreateMenuRequest{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	message string,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, EnvelopeResponseHandler{status: status, message: message})
	}
}
