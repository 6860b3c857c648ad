package middleware

import (
	"context"

	"github.com/bcnelson/winterface/internal/access"
)

type contextKey string

const tierSinkContextKey contextKey = "tier_sink"

func withTierSink(ctx context.Context, sink *access.Tier) context.Context {
	return context.WithValue(ctx, tierSinkContextKey, sink)
}

func recordTier(ctx context.Context, tier access.Tier) {
	if sink, ok := ctx.Value(tierSinkContextKey).(*access.Tier); ok {
		*sink = tier
	}
}
