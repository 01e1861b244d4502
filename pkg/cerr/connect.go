package cerr

import (
	"context"
	"errors"

	"connectrpc.com/connect"
)

// ConnectErrorInterceptor maps handler errors onto connect errors on the
// server side. Errors that already are *connect.Error, such as the health
// checker's NotFound for an unknown service, pass through untouched.
type ConnectErrorInterceptor struct{}

var _ connect.Interceptor = ConnectErrorInterceptor{}

func NewConnectErrorInterceptor() ConnectErrorInterceptor {
	return ConnectErrorInterceptor{}
}

func toConnectError(ctx context.Context, err error) error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	return ExtractConnectError(ctx, err)
}

func (ConnectErrorInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		resp, err := next(ctx, req)
		if err == nil || req.Spec().IsClient {
			return resp, err
		}
		return resp, toConnectError(ctx, err)
	}
}

func (ConnectErrorInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (ConnectErrorInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if err := next(ctx, conn); err != nil {
			return toConnectError(ctx, err)
		}
		return nil
	}
}
