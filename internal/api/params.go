package api

import (
	"net/http"
	"strconv"
)

// QueryInt parses an integer query parameter, falling back to a default
// when the parameter is absent.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, Validationf("%s must be an integer", name)
	}
	return v, nil
}

// QueryBool parses an optional boolean query parameter; nil means the
// parameter was absent.
func QueryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, Validationf("%s must be a boolean", name)
	}
	return &v, nil
}
