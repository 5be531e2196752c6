package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"open-homes-api/datasource"
	"open-homes-api/models"
	"open-homes-api/services"
	"open-homes-api/utils"
)

const maxSyncPayload = 1 << 20

type OpenHomeController struct {
	source   datasource.Source
	insights *services.InsightService
	logger   *utils.Logger
}

func NewOpenHomeController(source datasource.Source, insights *services.InsightService, logger *utils.Logger) *OpenHomeController {
	return &OpenHomeController{source: source, insights: insights, logger: logger}
}

func (oc *OpenHomeController) ListOpenHomes(c echo.Context) error {
	summaries, err := oc.source.ListOpenHomes(c.Request().Context())
	if err != nil {
		return oc.failure(c, "Failed to fetch open homes", err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (oc *OpenHomeController) GetOpenHome(c echo.Context) error {
	id := c.Param("id")
	summary, err := oc.source.GetOpenHome(c.Request().Context(), id)
	if errors.Is(err, datasource.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Home not found"})
	}
	if err != nil {
		return oc.failure(c, "Failed to fetch open home", err)
	}
	return c.JSON(http.StatusOK, summary)
}

// SyncOpenHomes writes open homes to storage. The body is an optional JSON
// array of summaries; without one, the live list is fetched and stored.
func (oc *OpenHomeController) SyncOpenHomes(c echo.Context) error {
	syncer, ok := oc.source.(datasource.Syncer)
	if !ok {
		return c.JSON(http.StatusNotImplemented, map[string]string{
			"message": datasource.ErrSyncUnsupported.Error(),
		})
	}

	payload, err := readSyncPayload(c.Request())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": "Invalid sync payload",
			"error":   err.Error(),
		})
	}

	oc.logger.Info("[api] sync requested with %d open homes in payload", len(payload))
	written, err := syncer.Sync(c.Request().Context(), payload)
	if err != nil {
		return oc.failure(c, "Failed to sync open homes", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Open homes synced",
		"written": written,
	})
}

func (oc *OpenHomeController) Insights(c echo.Context) error {
	summaries, err := oc.source.ListOpenHomes(c.Request().Context())
	if err != nil {
		return oc.failure(c, "Failed to fetch open homes", err)
	}
	return c.JSON(http.StatusOK, oc.insights.Generate(summaries))
}

func (oc *OpenHomeController) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"source": oc.source.Name(),
	})
}

func (oc *OpenHomeController) failure(c echo.Context, message string, err error) error {
	oc.logger.Error("[api] %s %s: %s: %v", c.Request().Method, c.Request().URL.Path, message, err)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"message": message,
		"error":   err.Error(),
	})
}

func readSyncPayload(r *http.Request) ([]models.OpenHomeSummary, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSyncPayload))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var summaries []models.OpenHomeSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
