package errs

import (
	"net/http"
)

// ErrorCode is one row of the error table: status, machine code and the
// message shown to clients.
type ErrorCode struct {
	Status  int
	Code    string
	Message string
}

// CodeOK is the code carried by every successful response envelope.
const CodeOK = "OK"

var (
	BadRequest = ErrorCode{
		Status:  http.StatusBadRequest,
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest)),
		Message: "잘못된 요청입니다",
	}
	NotFound = ErrorCode{
		Status:  http.StatusNotFound,
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound)),
		Message: "요청한 자원을 찾을 수 없습니다",
	}
	TooManyRequests = ErrorCode{
		Status:  http.StatusTooManyRequests,
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
		Message: "요청이 너무 많습니다",
	}
	InternalServerError = ErrorCode{
		Status:  http.StatusInternalServerError,
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message: "서버 오류가 발생했습니다",
	}
)

// New builds an HTTPError from an error table row.
func New(code ErrorCode) *HTTPError {
	return &HTTPError{
		Code:    code.Code,
		Message: code.Message,
		Status:  code.Status,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// code is optional: nil keeps "BAD_REQUEST", otherwise the caller's code
// is used verbatim (e.g. "MENU_ALREADY_EXISTS").
func NewBadRequestError(message string, code *string) *HTTPError {
	err := New(BadRequest)
	if message != "" {
		err.Message = message
	}
	if code != nil {
		err.Code = *code
	}
	return err
}

// NewNotFoundError creates the 404 returned when a requested resource is absent.
func NewNotFoundError() *HTTPError {
	return New(NotFound)
}

// NewTooManyRequestsError creates a 429 for rate limited clients.
func NewTooManyRequestsError() *HTTPError {
	return New(TooManyRequests)
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is generic: clients never see the underlying error.
func NewInternalServerError() *HTTPError {
	return New(InternalServerError)
}

// NewValidationError wraps field errors into a ValidationError.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
