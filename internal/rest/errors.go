package rest

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when the BMC address or a request cannot be built.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrHTTP is returned for transport failures and non-success responses.
	ErrHTTP = errors.New("http error")
	// ErrJSON is returned when a response body could not be decoded.
	ErrJSON = errors.New("json error")
	// ErrAuthFailure is returned when the BMC rejected the credentials.
	ErrAuthFailure = errors.New("failed to auth")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned on unexpected failures in the HTTP client.
	ErrInternal = errors.New("internal error")
)

// StatusError is returned when the BMC responds with a non-success status code.
//
// A StatusError always matches ErrHTTP, it also matches ErrAuthFailure
// for 401 and 403 responses and ErrNotFound for 404 responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// Is implements the interface used by errors.Is.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrHTTP:
		return true
	case ErrAuthFailure:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}

	return false
}

func newStatusError(method, url string, resp *http.Response) error {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &StatusError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     status,
	}
}
