package cerr

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
)

func callUnary(err error) error {
	h := NewConnectErrorInterceptor().WrapUnary(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, err
	})
	_, got := h(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	return got
}

func TestConnectErrorInterceptor_MapsCode(t *testing.T) {
	err := callUnary(NewError(NotFound, "task not found", nil))

	var ce *connect.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, connect.CodeNotFound, ce.Code())
	assert.Equal(t, "task not found", ce.Message())
}

func TestConnectErrorInterceptor_KeepsConnectErrors(t *testing.T) {
	orig := connect.NewError(connect.CodeNotFound, errors.New("unknown service"))
	assert.Same(t, orig, callUnary(orig))
}

func TestConnectErrorInterceptor_HidesUnknownErrors(t *testing.T) {
	err := callUnary(errors.New("disk on fire"))

	var ce *connect.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, connect.CodeUnknown, ce.Code())
	assert.NotContains(t, ce.Message(), "disk")
}

func TestConnectErrorInterceptor_NilPassesThrough(t *testing.T) {
	assert.NoError(t, callUnary(nil))
}
