package routes

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"open-homes-api/handlers"
)

// NewRouter builds the echo instance with middleware and all routes.
func NewRouter(oc *handlers.OpenHomeController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	RegisterRoutes(e, oc)
	return e
}

func RegisterRoutes(e *echo.Echo, oc *handlers.OpenHomeController) {
	e.GET("/health", oc.HealthCheck)

	api := e.Group("/api/open-homes")
	api.GET("", oc.ListOpenHomes)
	api.GET("/sync", oc.SyncOpenHomes)
	api.POST("/sync", oc.SyncOpenHomes)
	api.GET("/insights", oc.Insights)
	api.GET("/:id", oc.GetOpenHome)
}
