package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafe_ReturnsError(t *testing.T) {
	want := errors.New("boom")
	err := Safe(func() error { return want })()
	assert.ErrorIs(t, err, want)
}

func TestSafe_RecoversPanic(t *testing.T) {
	err := Safe(func() error { panic("kaboom") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestSafeContext_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	err := SafeContext(func(ctx context.Context) error {
		if ctx.Value(key{}) != "v" {
			return errors.New("context not propagated")
		}
		return nil
	})(ctx)
	assert.NoError(t, err)
}
