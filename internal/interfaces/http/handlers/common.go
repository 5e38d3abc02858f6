// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps application-level errors to HTTP status codes using the
// error code tables.  Internal errors are masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{
		Code:    string(code),
		Message: err.Error(),
	}
	if appErr, ok := err.(*errors.AppError); ok {
		resp.Detail = appErr.Detail
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}
