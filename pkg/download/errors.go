package download

import (
	"fmt"
)

// StatusError is returned by Fetch when the server answers with a non-2xx status. No bytes have
// been streamed when it is returned.
type StatusError struct {
	StatusCode int
}

func ErrUnexpectedHTTPStatus(statusCode int) error {
	return &StatusError{StatusCode: statusCode}
}

var _ error = &StatusError{}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}
