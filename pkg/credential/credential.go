// Package credential supplies the bearer token attached to every API call.
//
// A Provider is consulted on every request; implementations must not cache the token so that a
// login or logout from another process is observed by the next call.
package credential

import (
	"errors"
	"net/http"
	"strings"
)

const (
	AuthorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

var ErrNotLoggedIn = errors.New("not logged in")

// Provider returns the current bearer token, or false when no token is known.
type Provider interface {
	Token() (string, bool)
}

// Static is a Provider with a fixed token. The zero value provides no token.
type Static string

var _ Provider = Static("")

func (s Static) Token() (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (string, bool)

func (f ProviderFunc) Token() (string, bool) {
	return f()
}

// Chain returns the first token found among providers, in order.
func Chain(providers ...Provider) Provider {
	return ProviderFunc(func() (string, bool) {
		for _, p := range providers {
			if p == nil {
				continue
			}
			if token, ok := p.Token(); ok {
				return token, true
			}
		}
		return "", false
	})
}

// Authorize sets the Authorization header from p. When p has a token it overrides any value
// already present; otherwise the header is left untouched.
func Authorize(h http.Header, p Provider) {
	if p == nil {
		return
	}
	token, ok := p.Token()
	if !ok || token == "" {
		return
	}
	h.Set(AuthorizationHeader, bearerPrefix+token)
}
