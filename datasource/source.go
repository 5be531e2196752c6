// Package datasource selects where open homes come from: the live Trade Me
// API, a database kept in step with it, or a static fixture file.
package datasource

import (
	"context"
	"errors"
	"time"

	"open-homes-api/models"
)

// ErrNotFound is returned by GetOpenHome when no open home matches the id.
var ErrNotFound = errors.New("open home not found")

// ErrSyncUnsupported is returned when a source has nothing to persist into.
var ErrSyncUnsupported = errors.New("sync requires the cached data source")

// Source is the capability the HTTP layer depends on.
type Source interface {
	Name() string
	ListOpenHomes(ctx context.Context) ([]models.OpenHomeSummary, error)
	GetOpenHome(ctx context.Context, id string) (*models.OpenHomeSummary, error)
}

// Syncer is implemented by sources that can write open homes to storage.
// An empty payload means "fetch the live list and store it".
type Syncer interface {
	Sync(ctx context.Context, summaries []models.OpenHomeSummary) (int64, error)
}

// ListingFetcher is satisfied by *trademe.Client.
type ListingFetcher interface {
	FetchListings(ctx context.Context) ([]models.ListingRecord, error)
}

// Cache is satisfied by *storage.ResponseCache.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
