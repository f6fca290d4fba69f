package cache

import (
	"context"
	"time"

	"restoweb/backend/internal/domain"
)

type MenuCache interface {
	Get(ctx context.Context, key string) ([]domain.MenuItem, bool, error)
	Set(ctx context.Context, key string, items []domain.MenuItem, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopMenuCache struct{}

func (NoopMenuCache) Get(_ context.Context, _ string) ([]domain.MenuItem, bool, error) {
	return nil, false, nil
}

func (NoopMenuCache) Set(_ context.Context, _ string, _ []domain.MenuItem, _ time.Duration) error {
	return nil
}

func (NoopMenuCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
