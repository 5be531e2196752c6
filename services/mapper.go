package services

import (
	"strconv"
	"strings"

	"open-homes-api/models"
	"open-homes-api/utils"
)

// LocationFallback is used when a listing has neither suburb nor district.
const LocationFallback = "Location not specified"

// OpenHomeMapper turns Trade Me listings into OpenHomeSummary records.
type OpenHomeMapper struct {
	logger *utils.Logger
}

// NewOpenHomeMapper creates an OpenHomeMapper with the given logger.
func NewOpenHomeMapper(logger *utils.Logger) *OpenHomeMapper {
	return &OpenHomeMapper{logger: logger}
}

// Map keeps listings with at least one open home and projects each one,
// preserving source order.
func (m *OpenHomeMapper) Map(listings []models.ListingRecord) []models.OpenHomeSummary {
	result := make([]models.OpenHomeSummary, 0, len(listings))
	taken := listingIDs(listings)

	for _, l := range listings {
		if len(l.OpenHomes) == 0 {
			continue
		}

		id := l.ListingID
		if id == 0 {
			// Position in the returned batch only; it shifts between fetches.
			id = int64(len(result) + 1)
			for taken[id] {
				id++
			}
			taken[id] = true
			m.logger.Warn("[mapper] Listing %q has no ListingId, assigning positional id %d", l.Title, id)
		}

		result = append(result, models.OpenHomeSummary{
			ID:           id,
			ListingID:    l.ListingID,
			Title:        strings.TrimSpace(l.Title),
			Location:     resolveLocation(l),
			Bedrooms:     l.Bedrooms,
			Bathrooms:    l.Bathrooms,
			OpenHomeTime: l.OpenHomes[0].Start.Time,
			Price:        strings.TrimSpace(l.PriceDisplay),
			PictureHref:  strings.TrimSpace(l.PictureHref),
		})
	}

	m.logger.Debug("[mapper] %d listings → %d open homes", len(listings), len(result))
	return result
}

func listingIDs(listings []models.ListingRecord) map[int64]bool {
	ids := make(map[int64]bool, len(listings))
	for _, l := range listings {
		if l.ListingID != 0 && len(l.OpenHomes) > 0 {
			ids[l.ListingID] = true
		}
	}
	return ids
}

// FindSummary returns the first summary whose id or listingId equals id.
func FindSummary(summaries []models.OpenHomeSummary, id string) (*models.OpenHomeSummary, bool) {
	id = strings.TrimSpace(id)
	for i := range summaries {
		s := &summaries[i]
		if strconv.FormatInt(s.ID, 10) == id || (s.ListingID != 0 && strconv.FormatInt(s.ListingID, 10) == id) {
			return s, true
		}
	}
	return nil, false
}

func resolveLocation(l models.ListingRecord) string {
	if s := strings.TrimSpace(l.Suburb); s != "" {
		return s
	}
	if d := strings.TrimSpace(l.District); d != "" {
		return d
	}
	return LocationFallback
}
