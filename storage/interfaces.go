package storage

import (
	"context"
	"errors"

	"open-homes-api/models"
)

// ErrNotFound is returned by FetchOne when no row matches. It is not a failure.
var ErrNotFound = errors.New("storage: open home not found")

// OpenHomeStore is the interface any persistence backend must satisfy.
type OpenHomeStore interface {
	// Upsert writes summaries keyed by listing id; existing rows are
	// overwritten. It returns the number of rows written.
	Upsert(ctx context.Context, summaries []models.OpenHomeSummary) (int64, error)
	// FetchAll returns every stored open home ordered by open home time.
	FetchAll(ctx context.Context) ([]models.OpenHomeSummary, error)
	// FetchOne matches id against the internal id or the listing id.
	FetchOne(ctx context.Context, id string) (*models.OpenHomeSummary, error)
	Close() error
}

// keyable drops summaries without a listing id and keeps the last occurrence
// of each listing id, preserving first-seen order.
func keyable(summaries []models.OpenHomeSummary) []models.OpenHomeSummary {
	last := make(map[int64]int, len(summaries))
	for i, s := range summaries {
		if s.ListingID == 0 {
			continue
		}
		last[s.ListingID] = i
	}

	out := make([]models.OpenHomeSummary, 0, len(last))
	seen := make(map[int64]struct{}, len(last))
	for _, s := range summaries {
		if s.ListingID == 0 {
			continue
		}
		if _, dup := seen[s.ListingID]; dup {
			continue
		}
		seen[s.ListingID] = struct{}{}
		out = append(out, summaries[last[s.ListingID]])
	}
	return out
}
