// Package sessionstore resolves the session of an incoming request.
package sessionstore

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/bulletin/internal/domain/session"
)

// Provider returns the session attached to r, or nil when the caller is not
// logged in. An error means the session backend could not be consulted.
type Provider interface {
	Session(ctx context.Context, r *http.Request) (*session.Session, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, r *http.Request) (*session.Session, error)

func (f ProviderFunc) Session(ctx context.Context, r *http.Request) (*session.Session, error) {
	return f(ctx, r)
}

// Anonymous is the provider used when no session backend is configured.
var Anonymous Provider = ProviderFunc(func(context.Context, *http.Request) (*session.Session, error) {
	return nil, nil
})

// tokenFrom reads the session token from the named cookie, falling back to an
// Authorization: Bearer header.
func tokenFrom(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
