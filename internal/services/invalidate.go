package services

import (
	"context"

	"saladoverflow/internal/cache"
)

// invalidate drops cached listings after a committed mutation. A nil store is a no-op.
func invalidate(ctx context.Context, store cache.Store, prefixes ...string) {
	if store == nil {
		return
	}
	cache.Invalidate(ctx, store, prefixes...)
}
