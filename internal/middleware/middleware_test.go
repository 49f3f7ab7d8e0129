package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/config"
	"github.com/deppfellow/cafe-menu/internal/errs"
	"github.com/deppfellow/cafe-menu/internal/response"
	"github.com/deppfellow/cafe-menu/internal/server"
)

func testServer(rateLimit float64, burst int) *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"*"},
				RateLimit:          rateLimit,
				RateBurst:          burst,
			},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}
}

func handleError(t *testing.T, err error) (int, response.APIResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewGlobalMiddlewares(testServer(0, 0)).GlobalErrorHandler(err, c)

	var body response.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestGlobalErrorHandlerValidation(t *testing.T) {
	status, body := handleError(t, errs.NewValidationError(errs.FieldError{Field: "price", Error: "메뉴의 가격을 확인해주세요"}))

	if status != http.StatusBadRequest || body.Success || body.Code != "BAD_REQUEST" {
		t.Fatalf("unexpected response %d %+v", status, body)
	}
	if body.Validation["price"] != "메뉴의 가격을 확인해주세요" || body.Data != nil {
		t.Fatalf("unexpected validation %+v", body)
	}
}

func TestGlobalErrorHandlerDomainNotFound(t *testing.T) {
	status, body := handleError(t, fmt.Errorf("get menu: %w", errs.NewNotFoundError()))

	if status != http.StatusNotFound || body.Code != "NOT_FOUND" || body.Message != errs.NotFound.Message {
		t.Fatalf("unexpected response %d %+v", status, body)
	}
	if body.Validation == nil || len(body.Validation) != 0 {
		t.Fatalf("expected empty validation, got %v", body.Validation)
	}
}

func TestGlobalErrorHandlerEchoErrors(t *testing.T) {
	status, body := handleError(t, echo.ErrNotFound)
	if status != http.StatusNotFound || body.Code != "NOT_FOUND" {
		t.Fatalf("unexpected route miss response %d %+v", status, body)
	}

	status, body = handleError(t, echo.ErrMethodNotAllowed)
	if status != http.StatusMethodNotAllowed || body.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("unexpected 405 response %d %+v", status, body)
	}
}

func TestGlobalErrorHandlerStorageErrors(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", TableName: "menus", ConstraintName: "menus_name_key"}
	status, body := handleError(t, fmt.Errorf("create menu: %w", dup))
	if status != http.StatusBadRequest || body.Code != "MENU_ALREADY_EXISTS" {
		t.Fatalf("unexpected unique violation response %d %+v", status, body)
	}

	status, body = handleError(t, errors.New("connection reset"))
	if status != http.StatusInternalServerError || body.Code != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("unexpected fallback response %d %+v", status, body)
	}
	if body.Message != errs.InternalServerError.Message {
		t.Fatalf("internal details must not leak, got %q", body.Message)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.NewValidationError(), http.StatusBadRequest},
		{errs.NewNotFoundError(), http.StatusNotFound},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("create menu: %w", &pgconn.PgError{
			Code: "23505", TableName: "menus", ConstraintName: "menus_name_key",
		}), http.StatusBadRequest},
		{&pgconn.PgError{Code: "23502", TableName: "menus", ColumnName: "name"}, http.StatusBadRequest},
		{&pgconn.PgError{Code: "57014"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err, http.StatusInternalServerError); got != tc.want {
			t.Fatalf("statusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRequestIDKeepsValidAndReplacesInvalid(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	const incoming = "0b0e6f2a-3c1d-4a8e-9f10-2b3c4d5e6f70"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != incoming || rec.Header().Get(RequestIDHeader) != incoming {
		t.Fatalf("expected incoming id to be kept, got %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Body.String(); got == "<script>" || len(got) != len(incoming) {
		t.Fatalf("expected a generated id, got %q", got)
	}
}

func TestRateLimitRejectsWithEnvelope(t *testing.T) {
	s := testServer(1, 1)
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", second.Code)
	}

	var body response.APIResponse
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "TOO_MANY_REQUESTS" || body.Message != errs.TooManyRequests.Message {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	s := testServer(0, 0)
	e := echo.New()
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestEnhanceContextStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := testServer(0, 0)
	s.Logger = &logger

	e := echo.New()
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	e.GET("/menu/:menuId", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("from service")
		GetLogger(c).Info().Msg("from handler")
		return c.NoContent(http.StatusOK)
	})
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/menu/1", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %q", buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if id, _ := entry["request_id"].(string); id == "" || entry["path"] != "/menu/:menuId" || entry["method"] != http.MethodGet {
			t.Fatalf("missing request fields in %v", entry)
		}
	}
}
