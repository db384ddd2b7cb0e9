package cache

import (
	"context"
	"time"

	"pvcaisse/internal/caisse"
)

// CatalogueKey holds the cached operation catalogue.
const CatalogueKey = "pvcaisse:configuration:catalogue"

type CatalogueCache interface {
	Get(ctx context.Context) (*caisse.Catalog, bool, error)
	Set(ctx context.Context, value *caisse.Catalog, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopCatalogueCache struct{}

func (NoopCatalogueCache) Get(_ context.Context) (*caisse.Catalog, bool, error) {
	return nil, false, nil
}

func (NoopCatalogueCache) Set(_ context.Context, _ *caisse.Catalog, _ time.Duration) error {
	return nil
}

func (NoopCatalogueCache) Invalidate(_ context.Context) error { return nil }
