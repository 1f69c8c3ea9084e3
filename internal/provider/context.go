package provider

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoProvider is returned by FromContext when no provider is in scope.
var ErrNoProvider = errors.New("network provider not in context")

type ctxKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the provider installed by NewContext.
func FromContext(ctx context.Context) (*Provider, error) {
	if p, ok := ctx.Value(ctxKey{}).(*Provider); ok && p != nil {
		return p, nil
	}
	return nil, ErrNoProvider
}

// MustFromContext is like FromContext but panics when no provider is in
// scope. Use it only where a missing provider is a wiring bug.
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}

// Middleware installs p in every request's context.
func Middleware(p *Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), p)))
		})
	}
}
