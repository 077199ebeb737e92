package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/ports/primary"
)

var v = validator.New()

const dateLayout = "2006-01-02"

type orgTypeRequest struct {
	Status string `json:"status" validate:"required,oneof=N/A ACCEPT N/V VERIFIED"`
}

type organisationTypesRequest struct {
	TypeIDs []string `json:"type_ids" validate:"dive,required"`
}

type commissionRequest struct {
	Date         *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date"`
	Status       *string `json:"status" validate:"omitempty,oneof=CURRENT SUSPENDED REVOKED EXPIRED"`
	StatusReason *string `json:"status_reason" validate:"omitempty,max=16"`
	Comments     *string `json:"comments" validate:"omitempty,max=2000"`
}

type approvalRequest struct {
	Status  *string `json:"status" validate:"omitempty,oneof=REVISE READY REVIEW APPROVED"`
	MPAV    *string `json:"mpav" validate:"omitempty,oneof=REVISE REVIEW APPROVED"`
	Hygiene *string `json:"hygiene" validate:"omitempty,oneof=REVISE REVIEW APPROVED"`
	Layout  *string `json:"layout" validate:"omitempty,oneof=REVISE REVIEW APPROVED"`
	Public  *string `json:"public" validate:"omitempty,oneof=Y N"`
	Advice  *string `json:"advice" validate:"omitempty,max=2000"`
}

type locationRequest struct {
	Place    string `json:"place" validate:"required,max=128"`
	Street   string `json:"street" validate:"max=128"`
	Postcode string `json:"postcode" validate:"max=16"`
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unable to process request").WithInternal(err)
	}
	if err := v.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("could not validate request: %s", err.Error()))
	}
	return nil
}

func (r orgTypeRequest) toStatus() verification.OrgTypeStatus {
	return verification.OrgTypeStatus(r.Status)
}

// toForm converts the request into a commission form. An empty end date
// clears the end date.
func (r commissionRequest) toForm(organisationID, commissionID string) (primary.CommissionForm, error) {
	form := primary.CommissionForm{
		CommissionID:   commissionID,
		OrganisationID: organisationID,
		StatusReason:   r.StatusReason,
		Comments:       r.Comments,
	}

	if r.Date != nil {
		d, err := time.Parse(dateLayout, *r.Date)
		if err != nil {
			return form, err
		}
		form.Date = &d
	}
	if r.EndDate != nil {
		if *r.EndDate == "" {
			form.ClearEndDate = true
		} else {
			d, err := time.Parse(dateLayout, *r.EndDate)
			if err != nil {
				return form, err
			}
			form.EndDate = &d
		}
	}
	if r.Status != nil {
		s := commission.Status(*r.Status)
		form.Status = &s
	}
	return form, nil
}

func (r approvalRequest) toRequest(siteID string) primary.SaveApprovalRequest {
	req := primary.SaveApprovalRequest{SiteID: siteID, Advice: r.Advice}
	if r.Status != nil {
		s := siteapproval.Status(*r.Status)
		req.Status = &s
	}
	if r.MPAV != nil {
		m := siteapproval.Review(*r.MPAV)
		req.MPAV = &m
	}
	if r.Hygiene != nil {
		h := siteapproval.Review(*r.Hygiene)
		req.Hygiene = &h
	}
	if r.Layout != nil {
		l := siteapproval.Review(*r.Layout)
		req.Layout = &l
	}
	if r.Public != nil {
		p := siteapproval.Public(*r.Public)
		req.Public = &p
	}
	return req
}
