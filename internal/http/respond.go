package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

// errBadRequest marks malformed input that never reached a service.
var errBadRequest = errors.New("bad request")

var (
	conflictErrors = []error{
		core.ErrMonthlyBudgetExists,
		core.ErrCurrencyInUse,
		core.ErrCurrencyExists,
		core.ErrDuplicateOccurrence,
	}
	validationErrors = []error{
		core.ErrInvalidAmount,
		core.ErrInvalidRate,
		core.ErrInvalidDate,
		core.ErrInvalidMonth,
		core.ErrInvalidCurrencyCode,
		core.ErrInvalidColor,
		core.ErrInvalidFrequency,
		core.ErrInvalidBudgetType,
		core.ErrInvalidOperationType,
		core.ErrEmptyName,
		core.ErrMissingCategory,
		core.ErrMissingCurrency,
		core.ErrDescriptionTooLong,
	}
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, log.ErrorTypeValidation
	case errors.Is(err, core.ErrMissingUser):
		return http.StatusUnauthorized, log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, log.ErrorTypeConflict
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, log.ErrorTypeValidation
		}
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError hides internal error text from clients and logs it instead.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(errType)
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

type listBody[T any] struct {
	Items []T `json:"items"`
}

// list keeps empty results as [] rather than null.
func list[T any](items []T) listBody[T] {
	if items == nil {
		items = []T{}
	}
	return listBody[T]{Items: items}
}
