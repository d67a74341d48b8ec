package httputil

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a path variable from the request route.
func ParsePathString(r *http.Request, key string) (string, error) {
	value := mux.Vars(r)[key]
	if value == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return value, nil
}

// ParsePathStringOrError extracts a path variable, writing a 400
// response when it is absent.
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value, err := ParsePathString(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return value, true
}

// ParseQueryString extracts a query parameter, falling back to a
// default when the parameter is absent.
func ParseQueryString(r *http.Request, key, defaultVal string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultVal
}
