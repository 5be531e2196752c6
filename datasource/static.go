package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"open-homes-api/models"
	"open-homes-api/services"
)

// Static serves a fixed list loaded once at startup.
type Static struct {
	summaries []models.OpenHomeSummary
}

// LoadStatic reads a JSON array of open homes from path.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("static: read %q: %w", path, err)
	}

	var summaries []models.OpenHomeSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("static: decode %q: %w", path, err)
	}
	return NewStatic(summaries), nil
}

func NewStatic(summaries []models.OpenHomeSummary) *Static {
	if summaries == nil {
		summaries = []models.OpenHomeSummary{}
	}
	return &Static{summaries: summaries}
}

func (s *Static) Name() string { return "static" }

// ListOpenHomes returns a copy so callers cannot change the fixture.
func (s *Static) ListOpenHomes(context.Context) ([]models.OpenHomeSummary, error) {
	out := make([]models.OpenHomeSummary, len(s.summaries))
	copy(out, s.summaries)
	return out, nil
}

func (s *Static) GetOpenHome(_ context.Context, id string) (*models.OpenHomeSummary, error) {
	found, ok := services.FindSummary(s.summaries, id)
	if !ok {
		return nil, ErrNotFound
	}
	h := *found
	return &h, nil
}
