// Package response defines the JSON envelope every endpoint returns.
package response

import (
	"github.com/deppfellow/cafe-menu/internal/errs"
)

// APIResponse is the uniform body of every API response.
//
// Validation is never null: it is an empty object on success and on
// non-validation failures.
type APIResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Data       any               `json:"data"`
	Validation map[string]string `json:"validation"`
}

// Success wraps data in a successful envelope.
func Success(message string, data any) APIResponse {
	return APIResponse{
		Success:    true,
		Message:    message,
		Code:       errs.CodeOK,
		Data:       data,
		Validation: map[string]string{},
	}
}

// Error builds a failed envelope from a domain error.
func Error(err *errs.HTTPError) APIResponse {
	return APIResponse{
		Success:    false,
		Message:    err.Message,
		Code:       err.Code,
		Data:       nil,
		Validation: map[string]string{},
	}
}

// ValidationFailed builds the 400 envelope carrying per-field messages.
func ValidationFailed(err *errs.ValidationError) APIResponse {
	resp := Error(errs.New(errs.BadRequest))
	resp.Validation = err.FieldMap()
	return resp
}
