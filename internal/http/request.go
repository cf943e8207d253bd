package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"budget/internal/core"
)

// userID reads the caller identity from X-User-ID.
func userID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, core.ErrMissingUser
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", core.ErrMissingUser, userIDHeader)
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// decodeJSON rejects unknown fields, trailing data and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// Domain parse errors surfaced through UnmarshalJSON keep their type.
		for _, target := range validationErrors {
			if errors.Is(err, target) {
				return err
			}
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

// month parses ?month=YYYY-MM, defaulting to the current month.
func (s *Server) month(r *http.Request) (core.Date, error) {
	return core.ParseMonth(r.URL.Query().Get("month"), s.clock())
}

func optionalInt(q string) (int64, error) {
	if strings.TrimSpace(q) == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(q), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid integer %q", errBadRequest, q)
	}
	return v, nil
}

func optionalDate(q string) (core.Date, error) {
	if strings.TrimSpace(q) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(q)
}

// transactionFilter reads type, q, category_id, date_from and date_to.
func transactionFilter(r *http.Request) (core.TransactionFilter, error) {
	q := r.URL.Query()
	var f core.TransactionFilter
	var err error

	if f.Type, err = core.ParseOperationType(q.Get("type")); err != nil {
		return f, err
	}
	f.Search = strings.TrimSpace(q.Get("q"))
	if f.CategoryID, err = optionalInt(q.Get("category_id")); err != nil {
		return f, err
	}
	if f.From, err = optionalDate(q.Get("date_from")); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(q.Get("date_to")); err != nil {
		return f, err
	}
	return f, nil
}

// sanitizeInput trims s and drops control characters other than tab and
// line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
