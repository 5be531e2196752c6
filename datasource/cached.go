package datasource

import (
	"context"
	"errors"

	"open-homes-api/models"
	"open-homes-api/services"
	"open-homes-api/storage"
	"open-homes-api/utils"
)

// Cached serves open homes from a store and falls back to the live source
// when the store has nothing.
type Cached struct {
	store  storage.OpenHomeStore
	live   *Live
	logger *utils.Logger
}

func NewCached(store storage.OpenHomeStore, live *Live, logger *utils.Logger) *Cached {
	return &Cached{store: store, live: live, logger: logger}
}

func (c *Cached) Name() string { return "cached" }

// ListOpenHomes reads the store. An empty store is filled from a live fetch
// first; if that fails the empty list is served and the failure only logged.
func (c *Cached) ListOpenHomes(ctx context.Context) ([]models.OpenHomeSummary, error) {
	summaries, err := c.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) > 0 {
		return summaries, nil
	}

	c.logger.Info("[cached] store is empty, warming it from Trade Me")
	if _, err := c.Sync(ctx, nil); err != nil {
		c.logger.Warn("[cached] warming empty store failed, serving empty list: %v", err)
		return summaries, nil
	}
	return c.store.FetchAll(ctx)
}

// GetOpenHome tries the store, then a live fetch with a linear search.
func (c *Cached) GetOpenHome(ctx context.Context, id string) (*models.OpenHomeSummary, error) {
	s, err := c.store.FetchOne(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	c.logger.Debug("[cached] %s not in store, searching live results", id)
	summaries, err := c.live.fetch(ctx)
	if err != nil {
		return nil, err
	}
	found, ok := services.FindSummary(summaries, id)
	if !ok {
		return nil, ErrNotFound
	}
	return found, nil
}

// Sync upserts summaries, or a fresh live fetch when summaries is empty.
func (c *Cached) Sync(ctx context.Context, summaries []models.OpenHomeSummary) (int64, error) {
	if len(summaries) == 0 {
		fetched, err := c.live.fetch(ctx)
		if err != nil {
			return 0, err
		}
		summaries = fetched
	}

	written, err := c.store.Upsert(ctx, summaries)
	if err != nil {
		return written, err
	}
	c.live.invalidate(ctx)
	c.logger.Info("[cached] synced %d open homes (%d rows written)", len(summaries), written)
	return written, nil
}
