package httputil

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/pkg/errors"
)

// ParamInt64 parses a positive integer URL parameter.
func ParamInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.BadRequest("invalid " + name + " parameter")
	}
	return v, nil
}

// QueryInt64 parses an optional positive integer query parameter, nil when absent.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, errors.BadRequest("invalid " + name + " parameter")
	}
	return &v, nil
}
