package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deppfellow/cafe-menu/internal/errs"
)

func TestHandleErrorUniqueViolationOnMenuName(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "menus_name_key"`,
		TableName:      "menus",
		ConstraintName: "menus_name_key",
	}

	err := HandleError(fmt.Errorf("insert menu: %w", pgErr))

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", httpErr.Status)
	}
	if httpErr.Code != "MENU_ALREADY_EXISTS" {
		t.Fatalf("expected MENU_ALREADY_EXISTS, got %s", httpErr.Code)
	}
	if httpErr.Message != "A Menu with this Name already exists" {
		t.Fatalf("unexpected message: %s", httpErr.Message)
	}
}

func TestHandleErrorNotNullBecomesValidationError(t *testing.T) {
	err := HandleError(&pgconn.PgError{Code: "23502", TableName: "menus", ColumnName: "price"})

	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if _, ok := validationErr.FieldMap()["price"]; !ok {
		t.Fatalf("expected price field, got %v", validationErr.FieldMap())
	}
}

func TestHandleErrorNoRowsIsNotFound(t *testing.T) {
	err := HandleError(fmt.Errorf("find menu: %w", pgx.ErrNoRows))
	if !errors.Is(err, errs.NewNotFoundError()) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHandleErrorPassesThroughAppErrors(t *testing.T) {
	original := errs.NewNotFoundError()
	if got := HandleError(original); got != error(original) {
		t.Fatalf("expected the same error back")
	}
}

func TestHandleErrorUnknownIsInternal(t *testing.T) {
	err := HandleError(errors.New("boom"))
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}

	err = HandleError(&pgconn.PgError{Code: "40P01"})
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for deadlock, got %v", err)
	}
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	cases := map[string]string{
		"unique_menus_name": "name",
		"menus_name_key":    "name",
		"menus_pkey":        "",
		"":                  "",
	}
	for in, want := range cases {
		if got := extractColumnForUniqueViolation(in); got != want {
			t.Fatalf("extractColumnForUniqueViolation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrCode(t *testing.T) {
	if got := ErrCode(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})); got != UniqueViolation {
		t.Fatalf("expected unique violation, got %s", got)
	}
	if got := ErrCode(errors.New("nope")); got != Other {
		t.Fatalf("expected other, got %s", got)
	}
}
