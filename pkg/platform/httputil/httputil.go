// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "nipcheck/pkg/domain-errors"
)

// ErrorResponse is the wire form of every API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status and {code, message} body.
// Messages of internal errors are not exposed.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, statusFor(err), ToErrorResponse(err))
}

// ToErrorResponse builds the body WriteError would send for err.
func ToErrorResponse(err error) ErrorResponse {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return ErrorResponse{Code: string(dErrors.CodeInternal), Message: "internal error"}
	}
	if dErrors.ToHTTPStatus(de.Code) >= http.StatusInternalServerError {
		return ErrorResponse{Code: string(de.Code), Message: "internal error"}
	}
	return ErrorResponse{Code: string(de.Code), Message: de.Message}
}

func statusFor(err error) int {
	return dErrors.ToHTTPStatus(dErrors.CodeOf(err))
}
