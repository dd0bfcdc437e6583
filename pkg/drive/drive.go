// Package drive wraps the HelaList REST endpoints. Every method is a thin composition of the
// api dispatcher: it fixes the route and payload shape and decodes the reply into a typed value.
package drive

import (
	"net/url"
	"strings"

	"github.com/helalist/hela/pkg/api"
)

type Drive struct {
	API *api.Client
}

func New(c *api.Client) *Drive {
	return &Drive{API: c}
}

// Message is the acknowledgement returned by endpoints that report success without data.
type Message struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// escapePath turns a drive path into a URL path, escaping each segment. The result always starts
// with a slash; a trailing slash is kept.
func escapePath(p string) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}
