package handler

import (
	"net/http"
	"strconv"

	"github.com/sakif/pose-mock/internal/apperror"
)

// pathID parses the {id} segment. Routes constrain it to digits, so a
// failure here means the number overflowed int64; that id cannot exist.
func pathID(r *http.Request, resource string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource)
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter. Missing,
// unparseable and negative values all yield -1, which the services treat
// as "use the default".
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// queryInt64Ptr reads an optional id filter. Anything that is not a
// positive integer means "no filter".
func queryInt64Ptr(r *http.Request, key string) *int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
