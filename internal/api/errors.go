package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a decoded server rejection. Message is the server's
// human-readable text and is surfaced to the user verbatim.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsError extracts a server rejection from an error chain. Transport
// failures (no response at all) do not match.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStale reports whether the server no longer recognizes the
// addressed id, typically a superseded or removed version.
func IsStale(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// IsConflict reports a business-rule rejection such as "signer already
// signed" or a rejected permutation.
func IsConflict(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusConflict
}
