package services

import (
	"open-homes-api/models"
	"open-homes-api/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate aggregates the given open homes. Zero open-home times are left out
// of the earliest/latest picks.
func (s *InsightService) Generate(summaries []models.OpenHomeSummary) *models.InsightReport {
	report := &models.InsightReport{
		OpenHomesByLocation: make(map[string]int),
		OpenHomesByBedrooms: make(map[int]int),
	}

	if len(summaries) == 0 {
		return report
	}

	report.TotalOpenHomes = len(summaries)

	var totalBedrooms int
	for i := range summaries {
		h := &summaries[i]

		totalBedrooms += h.Bedrooms
		report.OpenHomesByBedrooms[h.Bedrooms]++
		if h.Location != "" {
			report.OpenHomesByLocation[h.Location]++
		}

		if h.OpenHomeTime.IsZero() {
			continue
		}
		if report.EarliestOpenHome == nil || h.OpenHomeTime.Before(report.EarliestOpenHome.OpenHomeTime) {
			report.EarliestOpenHome = h
		}
		if report.LatestOpenHome == nil || h.OpenHomeTime.After(report.LatestOpenHome.OpenHomeTime) {
			report.LatestOpenHome = h
		}
	}

	report.AverageBedrooms = round2(float64(totalBedrooms) / float64(len(summaries)))

	s.logger.Debug("[insights] %d open homes across %d locations",
		report.TotalOpenHomes, len(report.OpenHomesByLocation))
	return report
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
