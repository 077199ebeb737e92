// Package api exposes the approval workflows over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/ports/primary"
)

// Handler serves the workflow routes.
type Handler struct {
	provider primary.ProviderService
	station  primary.StationService
}

// NewHandler creates a new Handler.
func NewHandler(provider primary.ProviderService, station primary.StationService) *Handler {
	return &Handler{provider: provider, station: station}
}

// NewServer creates the echo instance with middlewares and routes.
func NewServer(h *Handler, jwtSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(requestLogger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/registry", h.registry)

	auth := api.Group("", JWTAuth(jwtSecret))
	approver := RequireRole(access.RoleApprover)

	auth.GET("/organisations/:id/verification", h.getVerification)
	auth.POST("/organisations/:id/verification/refresh", h.refreshVerification)
	auth.PUT("/organisations/:id/verification/orgtype", h.setOrgType, approver)
	auth.PUT("/organisations/:id/types", h.setOrganisationTypes, approver)
	auth.GET("/organisations/:id/commissions", h.listCommissions)
	auth.POST("/organisations/:id/commissions", h.createCommission, approver)
	auth.PATCH("/commissions/:id", h.updateCommission, approver)

	auth.GET("/sites/:id/approval", h.getApproval)
	auth.PATCH("/sites/:id/approval", h.saveApproval)
	auth.PUT("/sites/:id/location", h.updateLocation)
	auth.GET("/sites/:id/approval/history", h.approvalHistory)

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			if err == nil && c.Path() != "/healthz" {
				slog.Info("handled request",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"status", c.Response().Status,
					"duration", time.Since(start),
				)
			}
			return err
		}
	}
}
