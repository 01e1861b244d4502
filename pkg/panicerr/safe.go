package panicerr

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps a function that returns an error, catching any panics and returning them as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext wraps a function that takes a context and returns an error.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return Safe(func() error { return fn(ctx) })()
	}
}

// Go runs fn in its own goroutine. Errors and panics are logged under name
// instead of crashing the process.
func Go(ctx context.Context, name string, fn func(context.Context) error) {
	safe := SafeContext(fn)
	go func() {
		if err := safe(ctx); err != nil {
			slog.ErrorContext(ctx, "background worker stopped", "worker", name, "error", err)
		}
	}()
}
