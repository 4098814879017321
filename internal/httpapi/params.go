package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shelfwise/internal/apperr"
)

// ID extracts a positive integer URL parameter. Handlers call this before
// touching any service, so the core never sees a raw ID.
func ID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id must be a positive integer")
	}
	return id, nil
}

// Decode reads a JSON request body into dest, rejecting unknown fields.
func Decode(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return apperr.Invalid("invalid request body")
	}
	return nil
}

// dateLayouts accepted for date fields, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate coerces a date string into a time.Time.
func ParseDate(raw, field string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Invalid(field + " must be a valid date")
}

// ParseOptionalDate coerces an optional date string; empty means absent.
func ParseOptionalDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := ParseDate(raw, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
