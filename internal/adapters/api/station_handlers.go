package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

type approvalResponse struct {
	Approval *primary.SiteApproval    `json:"approval"`
	Form     *siteapproval.FormPolicy `json:"form"`
}

func (h *Handler) registry(c echo.Context) error {
	entries, err := h.station.PublicRegistry(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	if entries == nil {
		entries = []secondary.RegistryEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) getApproval(c echo.Context) error {
	ctx := c.Request().Context()
	siteID := c.Param("id")

	approval, err := h.station.GetApproval(ctx, siteID)
	if err != nil {
		return errorResponse(err)
	}
	form, err := h.station.ApprovalFormConfig(ctx, siteID)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, approvalResponse{Approval: approval, Form: form})
}

func (h *Handler) saveApproval(c echo.Context) error {
	var req approvalRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.station.SaveApproval(c.Request().Context(), req.toRequest(c.Param("id")))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) updateLocation(c echo.Context) error {
	var req locationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.station.UpdateLocation(c.Request().Context(), primary.UpdateLocationRequest{
		SiteID:   c.Param("id"),
		Parent:   req.Place,
		Street:   req.Street,
		Postcode: req.Postcode,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) approvalHistory(c echo.Context) error {
	history, err := h.station.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(err)
	}
	if history == nil {
		history = []*primary.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, history)
}
