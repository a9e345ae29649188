package v1

import (
	"errors"
	"net/http"

	"github.com/tinoosan/fintrack/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// serviceError maps sentinel errors from the service layer onto HTTP
// statuses. Unknown errors become a 500 without leaking internals.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrForbidden):
		writeErr(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrDuplicate):
		conflict(w, err.Error())
	case errors.Is(err, errs.ErrInvalid), errors.Is(err, errs.ErrSplitMismatch), errors.Is(err, errs.ErrSystemCategory):
		unprocessable(w, err.Error(), "validation_error")
	case errors.Is(err, errs.ErrNoBaseCurrency):
		unprocessable(w, err.Error(), "no_base_currency")
	default:
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
	}
}
