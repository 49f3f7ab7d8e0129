package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/config"
	"github.com/deppfellow/cafe-menu/internal/errs"
	"github.com/deppfellow/cafe-menu/internal/model"
	"github.com/deppfellow/cafe-menu/internal/response"
	"github.com/deppfellow/cafe-menu/internal/server"
)

func testServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "test"},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}
}

func serve(t *testing.T, h echo.HandlerFunc, method, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestHandleWrapsResultInEnvelope(t *testing.T) {
	h := NewHandler(testServer())
	fn := func(c echo.Context, req *model.CreateMenuRequest) (*model.MenuIDResponse, error) {
		return &model.MenuIDResponse{ID: 7}, nil
	}

	rec, err := serve(t, Handle(h, fn, http.StatusCreated, MenuCreatedMessage, &model.CreateMenuRequest{}),
		http.MethodPost, `{"name":"아메리카노","price":4500}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var body struct {
		response.APIResponse
		Data model.MenuIDResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Code != errs.CodeOK || body.Message != MenuCreatedMessage || body.Data.ID != 7 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHandleBindsIntoFreshRequest(t *testing.T) {
	h := NewHandler(testServer())
	proto := &model.CreateMenuRequest{}

	var seen []*model.CreateMenuRequest
	fn := func(c echo.Context, req *model.CreateMenuRequest) (*model.MenuIDResponse, error) {
		seen = append(seen, req)
		return &model.MenuIDResponse{ID: 1}, nil
	}
	endpoint := Handle(h, fn, http.StatusCreated, MenuCreatedMessage, proto)

	if _, err := serve(t, endpoint, http.MethodPost, `{"name":"아메리카노","price":4500}`); err != nil {
		t.Fatalf("first request: %v", err)
	}

	// A body without name must fail even though the previous request set one.
	_, err := serve(t, endpoint, http.MethodPost, `{"price":4500}`)
	var validationErr *errs.ValidationError
	if err == nil || !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.FieldMap()["name"] != "이름을 확인해주세요" {
		t.Fatalf("unexpected fields %v", validationErr.FieldMap())
	}

	if len(seen) != 1 || seen[0] == proto {
		t.Fatalf("handler must receive a copy, not the registered request")
	}
	if proto.Name != "" || proto.Price != nil {
		t.Fatalf("registered request was mutated: %+v", proto)
	}
}

func TestHandleReturnsHandlerErrorUntouched(t *testing.T) {
	h := NewHandler(testServer())
	fn := func(c echo.Context, req *model.CreateMenuRequest) (*model.MenuIDResponse, error) {
		return nil, errs.NewNotFoundError()
	}

	rec, err := serve(t, Handle(h, fn, http.StatusOK, MenuFoundMessage, &model.CreateMenuRequest{}),
		http.MethodPost, `{"name":"라떼","price":5000}`)
	if err == nil || err.Error() != errs.NotFound.Message {
		t.Fatalf("expected not found, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("the error handler writes failures, got body %q", rec.Body.String())
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	rec, err := serve(t, NewHealthHandler(testServer()).CheckHealth, http.MethodGet, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body struct {
		Status      string                    `json:"status"`
		Environment string                    `json:"environment"`
		Checks      map[string]map[string]any `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != StatusUnhealthy || body.Environment != "test" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Checks["database"]["status"] != StatusUnhealthy || body.Checks["database"]["error"] != "not configured" {
		t.Fatalf("unexpected database check %+v", body.Checks["database"])
	}
	if _, ok := body.Checks["redis"]; ok {
		t.Fatalf("redis is only reported when configured")
	}
}

func TestServeOpenAPIUI(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openapi.html"), []byte("<html>docs</html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewOpenAPIHandler(testServer())
	h.dir = dir

	rec, err := serve(t, h.ServeOpenAPIUI, http.MethodGet, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "<html>docs</html>" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Fatalf("expected no-cache header")
	}

	h.dir = filepath.Join(dir, "missing")
	if _, err := serve(t, h.ServeOpenAPIUI, http.MethodGet, ""); err == nil {
		t.Fatalf("expected an error for a missing template")
	}
}

func TestHealthWithChecksDisabled(t *testing.T) {
	s := testServer()
	s.Config.Observability.HealthChecks.Enabled = false

	rec, err := serve(t, NewHealthHandler(s).CheckHealth, http.MethodGet, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
