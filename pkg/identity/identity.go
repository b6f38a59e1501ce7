// Package identity carries the authenticated caller through request contexts.
// Session verification itself happens at the HTTP boundary; services only ever
// see a Caller and treat its absence as an unauthenticated request.
package identity

import (
	"context"

	perrors "github.com/parleyhq/parley/pkg/errors"
)

// Caller is the authenticated identity attached to every operation.
type Caller struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

type contextKey struct{}

// WithCaller returns a context carrying the given caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

// CallerFrom extracts the caller from the context. Returns ErrUnauthenticated
// when no caller is present or the caller has no id.
func CallerFrom(ctx context.Context) (Caller, error) {
	caller, ok := ctx.Value(contextKey{}).(Caller)
	if !ok || caller.ID == "" {
		return Caller{}, perrors.ErrUnauthenticated
	}
	return caller, nil
}
