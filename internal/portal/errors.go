package portal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork reports that the upstream member API could not be reached
var ErrNetwork = errors.New("network error")

// APIError is a business or HTTP error reported by the upstream member API.
// Message is shown to the visitor verbatim.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
