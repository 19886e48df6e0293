package cache

import (
	"context"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
)

// Store persists completed transforms under content keys. TTL is a property
// of the store; expired records are never returned from Get.
//
// Get reports (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*domain.CachedTransform, bool, error)
	Put(ctx context.Context, key string, rec domain.CachedTransform) error
}

// None is a Store that never hits. It is used when caching is disabled.
type None struct{}

// Get always misses.
func (None) Get(context.Context, string) (*domain.CachedTransform, bool, error) {
	return nil, false, nil
}

// Put discards rec.
func (None) Put(context.Context, string, domain.CachedTransform) error { return nil }
