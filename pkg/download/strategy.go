package download

import (
	"context"
	"net/http"
)

// ProgressFunc receives the integer percentage of the declared total consumed so far. The same
// value may be reported more than once.
type ProgressFunc func(percent int)

// Fetcher retrieves a resource as a re-streamed response.
type Fetcher interface {
	Fetch(ctx context.Context, target string, onProgress ProgressFunc) (*http.Response, error)
}

var _ Fetcher = &Manager{}
