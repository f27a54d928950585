package httpclient

import (
	"context"
	"log/slog"
)

// FetchWithFallback runs op and returns its result, or the fallback value
// when op fails. The failure is logged at warn level and never propagated;
// callers get a degraded-but-defined result. Used for per-store lookups
// where an unavailable store must not abort the aggregate.
func FetchWithFallback[T any](ctx context.Context, logger *slog.Logger, name string, op func(context.Context) (T, error), fallback T) T {
	result, err := op(ctx)
	if err != nil {
		logger.WarnContext(ctx, "lookup failed, using fallback",
			slog.String("operation", name),
			slog.String("error", err.Error()),
		)
		return fallback
	}
	return result
}
