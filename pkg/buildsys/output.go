package buildsys

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

// Logger returns the logger attached to the context. It panics if WithLogger
// was never called since running without a logger is a programming error.
func Logger(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logKey{})
	if logger == nil {
		panic("logger is missing in context")
	}

	return logger.(*zerolog.Logger)
}

func log(ctx context.Context) *zerolog.Logger {
	return Logger(ctx)
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}
