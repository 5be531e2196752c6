package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"open-homes-api/config"
	"open-homes-api/datasource"
	"open-homes-api/handlers"
	"open-homes-api/models"
	"open-homes-api/services"
	"open-homes-api/storage"
	"open-homes-api/trademe"
	"open-homes-api/utils"
)

func fixture() []models.OpenHomeSummary {
	return []models.OpenHomeSummary{
		{ID: 1, ListingID: 4001, Title: "Villa", Location: "Ponsonby", Bedrooms: 3, Bathrooms: 2,
			OpenHomeTime: time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC), Price: "Auction"},
		{ID: 2, ListingID: 4002, Title: "Flat", Location: "Kelburn", Bedrooms: 1, Bathrooms: 1,
			OpenHomeTime: time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC), Price: "$450,000"},
	}
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "failing" }
func (f failingSource) ListOpenHomes(context.Context) ([]models.OpenHomeSummary, error) {
	return nil, f.err
}
func (f failingSource) GetOpenHome(context.Context, string) (*models.OpenHomeSummary, error) {
	return nil, f.err
}

type memoryStore struct {
	rows []models.OpenHomeSummary
}

func (m *memoryStore) Upsert(_ context.Context, s []models.OpenHomeSummary) (int64, error) {
	m.rows = append(m.rows, s...)
	return int64(len(s)), nil
}
func (m *memoryStore) FetchAll(context.Context) ([]models.OpenHomeSummary, error) {
	return append([]models.OpenHomeSummary{}, m.rows...), nil
}
func (m *memoryStore) FetchOne(context.Context, string) (*models.OpenHomeSummary, error) {
	return nil, storage.ErrNotFound
}
func (m *memoryStore) Close() error { return nil }

type stubFetcher struct{ listings []models.ListingRecord }

func (s stubFetcher) FetchListings(context.Context) ([]models.ListingRecord, error) {
	return s.listings, nil
}

func newTestRouter(source datasource.Source) *echo.Echo {
	logger := utils.NewNopLogger()
	oc := handlers.NewOpenHomeController(source, services.NewInsightService(logger), logger)
	e := echo.New()
	RegisterRoutes(e, oc)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestListOpenHomes(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()))
	rec := do(t, e, http.MethodGet, "/api/open-homes", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []models.OpenHomeSummary
	decode(t, rec, &got)
	if len(got) != 2 || got[0].Title != "Villa" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestListOpenHomesJSONShape(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()[:1]))
	rec := do(t, e, http.MethodGet, "/api/open-homes", "")

	var raw []map[string]any
	decode(t, rec, &raw)
	for _, key := range []string{"id", "listingId", "title", "location", "bedrooms", "bathrooms", "openHomeTime", "price", "pictureHref"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestGetOpenHomeByEitherID(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()))
	for _, id := range []string{"2", "4002"} {
		rec := do(t, e, http.MethodGet, "/api/open-homes/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("id %s: expected 200, got %d", id, rec.Code)
		}
		var got models.OpenHomeSummary
		decode(t, rec, &got)
		if got.Title != "Flat" {
			t.Errorf("id %s: got %q, want Flat", id, got.Title)
		}
	}
}

func TestGetOpenHomeNotFound(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()))
	rec := do(t, e, http.MethodGet, "/api/open-homes/9999", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var got map[string]string
	decode(t, rec, &got)
	if len(got) != 1 || got["message"] != "Home not found" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestErrorsMapTo500WithMessage(t *testing.T) {
	e := newTestRouter(failingSource{err: errors.New("upstream exploded")})

	for _, target := range []string{"/api/open-homes", "/api/open-homes/1", "/api/open-homes/insights"} {
		rec := do(t, e, http.MethodGet, target, "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", target, rec.Code)
		}
		var got map[string]string
		decode(t, rec, &got)
		if got["message"] == "" || got["error"] != "upstream exploded" {
			t.Errorf("%s: unexpected body: %v", target, got)
		}
	}
}

func TestMissingCredentialsReturns500(t *testing.T) {
	logger := utils.NewNopLogger()
	client := trademe.NewClient(&config.Config{TradeMeRows: 50}, logger, nil)
	live := datasource.NewLive(client, services.NewOpenHomeMapper(logger), logger)
	e := newTestRouter(live)

	rec := do(t, e, http.MethodGet, "/api/open-homes", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "consumer key and secret are required") {
		t.Errorf("body should carry the configuration error: %s", rec.Body.String())
	}
}

func TestCachedListWithoutCredentialsReturnsEmptyList(t *testing.T) {
	logger := utils.NewNopLogger()
	client := trademe.NewClient(&config.Config{TradeMeRows: 50}, logger, nil)
	live := datasource.NewLive(client, services.NewOpenHomeMapper(logger), logger)
	e := newTestRouter(datasource.NewCached(&memoryStore{}, live, logger))

	rec := do(t, e, http.MethodGet, "/api/open-homes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body: got %s, want []", got)
	}
}

func TestSyncUnsupportedOnStatic(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()))
	rec := do(t, e, http.MethodGet, "/api/open-homes/sync", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestSyncWritesPayload(t *testing.T) {
	logger := utils.NewNopLogger()
	store := &memoryStore{}
	live := datasource.NewLive(stubFetcher{}, services.NewOpenHomeMapper(logger), logger)
	e := newTestRouter(datasource.NewCached(store, live, logger))

	body := `[{"listingId": 77, "title": "Pushed", "openHomeTime": "2024-03-09T01:00:00Z"}]`
	rec := do(t, e, http.MethodPost, "/api/open-homes/sync", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	decode(t, rec, &got)
	if got["written"] != float64(1) {
		t.Errorf("written: got %v, want 1", got["written"])
	}
	if len(store.rows) != 1 || store.rows[0].Title != "Pushed" {
		t.Errorf("store rows: %+v", store.rows)
	}
}

func TestSyncWithoutPayloadFetchesLive(t *testing.T) {
	logger := utils.NewNopLogger()
	store := &memoryStore{}
	start := models.TradeMeTime{Time: time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC)}
	fetcher := stubFetcher{listings: []models.ListingRecord{
		{ListingID: 88, Title: "Live", OpenHomes: []models.OpenHome{{Start: start}}},
	}}
	live := datasource.NewLive(fetcher, services.NewOpenHomeMapper(logger), logger)
	e := newTestRouter(datasource.NewCached(store, live, logger))

	rec := do(t, e, http.MethodGet, "/api/open-homes/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.rows) != 1 || store.rows[0].ListingID != 88 {
		t.Errorf("store rows: %+v", store.rows)
	}
}

func TestSyncRejectsMalformedPayload(t *testing.T) {
	logger := utils.NewNopLogger()
	live := datasource.NewLive(stubFetcher{}, services.NewOpenHomeMapper(logger), logger)
	e := newTestRouter(datasource.NewCached(&memoryStore{}, live, logger))

	rec := do(t, e, http.MethodPost, "/api/open-homes/sync", `{"listingId": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInsights(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(fixture()))
	rec := do(t, e, http.MethodGet, "/api/open-homes/insights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.InsightReport
	decode(t, rec, &got)
	if got.TotalOpenHomes != 2 || got.OpenHomesByLocation["Kelburn"] != 1 {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.EarliestOpenHome == nil || got.EarliestOpenHome.Title != "Villa" {
		t.Errorf("EarliestOpenHome: %+v", got.EarliestOpenHome)
	}
}

func TestHealth(t *testing.T) {
	e := newTestRouter(datasource.NewStatic(nil))
	rec := do(t, e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]string
	decode(t, rec, &got)
	if got["status"] != "ok" || got["source"] != "static" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestNewRouterSetsRequestID(t *testing.T) {
	logger := utils.NewNopLogger()
	oc := handlers.NewOpenHomeController(datasource.NewStatic(nil), services.NewInsightService(logger), logger)
	e := NewRouter(oc)

	rec := do(t, e, http.MethodGet, "/health", "")
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected X-Request-Id header")
	}
}
