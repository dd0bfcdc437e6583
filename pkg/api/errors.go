package api

import (
	"fmt"
)

const fallbackMessage = "api error"

// HTTPError is a transport level failure: the server answered with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

var _ error = &HTTPError{}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// EnvelopeError is an application level failure: a 2xx reply whose envelope code is not the
// success code. Message is the server supplied reason.
type EnvelopeError struct {
	Code    int
	Message string
}

var _ error = &EnvelopeError{}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return fallbackMessage
	}
	return e.Message
}
