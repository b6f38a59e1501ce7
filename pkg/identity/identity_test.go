package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/parleyhq/parley/pkg/errors"
)

func TestWithCallerRoundTrip(t *testing.T) {
	caller := Caller{ID: "u-1", Name: "Ada", Email: "ada@example.com"}
	ctx := WithCaller(context.Background(), caller)

	got, err := CallerFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, caller, got)
}

func TestCallerFromMissing(t *testing.T) {
	_, err := CallerFrom(context.Background())
	assert.True(t, perrors.IsUnauthenticated(err))
}

func TestCallerFromEmptyID(t *testing.T) {
	ctx := WithCaller(context.Background(), Caller{Name: "no id"})
	_, err := CallerFrom(ctx)
	assert.True(t, perrors.IsUnauthenticated(err))
}
