package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/ports/primary"
)

type verificationResponse struct {
	Verification *primary.Verification    `json:"verification"`
	Form         *verification.FormPolicy `json:"form"`
}

type commissionsResponse struct {
	Commissions []*primary.Commission  `json:"commissions"`
	Current     *primary.Commission    `json:"current,omitempty"`
	Form        *commission.FormPolicy `json:"form"`
}

func (h *Handler) getVerification(c echo.Context) error {
	ctx := c.Request().Context()
	orgID := c.Param("id")

	v, err := h.provider.GetVerification(ctx, orgID)
	if err != nil {
		return errorResponse(err)
	}
	form, err := h.provider.VerificationFormConfig(ctx, orgID)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, verificationResponse{Verification: v, Form: form})
}

func (h *Handler) refreshVerification(c echo.Context) error {
	v, err := h.provider.UpdateVerification(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) setOrgType(c echo.Context) error {
	var req orgTypeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v, err := h.provider.SetOrgTypeStatus(c.Request().Context(), primary.SetOrgTypeRequest{
		OrganisationID: c.Param("id"),
		Status:         req.toStatus(),
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) setOrganisationTypes(c echo.Context) error {
	var req organisationTypesRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v, err := h.provider.SetOrganisationTypes(c.Request().Context(), primary.SetOrganisationTypesRequest{
		OrganisationID: c.Param("id"),
		TypeIDs:        req.TypeIDs,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) listCommissions(c echo.Context) error {
	ctx := c.Request().Context()
	orgID := c.Param("id")

	commissions, err := h.provider.ListCommissions(ctx, orgID)
	if err != nil {
		return errorResponse(err)
	}
	current, err := h.provider.CurrentCommission(ctx, orgID)
	if err != nil {
		return errorResponse(err)
	}
	form, err := h.provider.CommissionFormConfig(ctx, orgID, "")
	if err != nil {
		return errorResponse(err)
	}

	if commissions == nil {
		commissions = []*primary.Commission{}
	}
	return c.JSON(http.StatusOK, commissionsResponse{Commissions: commissions, Current: current, Form: form})
}

func (h *Handler) createCommission(c echo.Context) error {
	var req commissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	form, err := req.toForm(c.Param("id"), "")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date").WithInternal(err)
	}

	created, err := h.provider.CreateCommission(c.Request().Context(), form)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateCommission(c echo.Context) error {
	var req commissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	form, err := req.toForm("", c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date").WithInternal(err)
	}

	updated, err := h.provider.UpdateCommission(c.Request().Context(), form)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, updated)
}
