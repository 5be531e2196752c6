package datasource

import (
	"context"
	"time"

	"open-homes-api/models"
	"open-homes-api/services"
	"open-homes-api/utils"
)

const listCacheKey = "open-homes:list"

// Live fetches from Trade Me on every call, optionally through a short-lived
// response cache.
type Live struct {
	fetcher ListingFetcher
	mapper  *services.OpenHomeMapper
	logger  *utils.Logger

	cache    Cache
	cacheTTL time.Duration
}

func NewLive(fetcher ListingFetcher, mapper *services.OpenHomeMapper, logger *utils.Logger) *Live {
	return &Live{fetcher: fetcher, mapper: mapper, logger: logger}
}

// WithCache enables the response cache. A nil cache or a non-positive ttl
// leaves it disabled.
func (l *Live) WithCache(cache Cache, ttl time.Duration) *Live {
	if cache == nil || ttl <= 0 {
		return l
	}
	l.cache = cache
	l.cacheTTL = ttl
	return l
}

func (l *Live) Name() string { return "live" }

func (l *Live) ListOpenHomes(ctx context.Context) ([]models.OpenHomeSummary, error) {
	if l.cache != nil {
		var cached []models.OpenHomeSummary
		found, err := l.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			l.logger.Warn("[live] cache read failed, fetching upstream: %v", err)
		} else if found {
			l.logger.Debug("[live] serving %d open homes from cache", len(cached))
			return cached, nil
		}
	}

	summaries, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, listCacheKey, summaries, l.cacheTTL); err != nil {
			l.logger.Warn("[live] cache write failed: %v", err)
		}
	}
	return summaries, nil
}

func (l *Live) GetOpenHome(ctx context.Context, id string) (*models.OpenHomeSummary, error) {
	summaries, err := l.ListOpenHomes(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := services.FindSummary(summaries, id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// fetch always goes upstream, bypassing the cache.
func (l *Live) fetch(ctx context.Context) ([]models.OpenHomeSummary, error) {
	listings, err := l.fetcher.FetchListings(ctx)
	if err != nil {
		return nil, err
	}
	return l.mapper.Map(listings), nil
}

// invalidate drops the cached list after storage has changed.
func (l *Live) invalidate(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, listCacheKey); err != nil {
		l.logger.Warn("[live] cache invalidation failed: %v", err)
	}
}
