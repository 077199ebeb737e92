package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/organisation"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/metrics"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// SiteVisibilityUpdater changes the registry listing of all sites of an
// organisation. Implemented by the station service.
type SiteVisibilityUpdater interface {
	UpdateAll(ctx context.Context, organisationID string, public siteapproval.Public, reasons ...siteapproval.PublicReason) (int, error)
}

// ProviderConfig holds the settings of the provider workflows.
type ProviderConfig struct {
	// TestStationsGroup is the organisation group whose members must
	// document their test station managers.
	TestStationsGroup string
}

// ProviderServiceImpl implements the ProviderService interface.
type ProviderServiceImpl struct {
	orgRepo          secondary.OrganisationRepository
	verificationRepo secondary.VerificationRepository
	commissionRepo   secondary.CommissionRepository
	staffRepo        secondary.StaffRepository
	identity         secondary.IdentityProvider
	stations         SiteVisibilityUpdater
	notifier         secondary.Notifier
	contacts         secondary.ContactDirectory
	clock            secondary.Clock
	config           ProviderConfig
}

// NewProviderService creates a new ProviderService with injected dependencies.
func NewProviderService(
	orgRepo secondary.OrganisationRepository,
	verificationRepo secondary.VerificationRepository,
	commissionRepo secondary.CommissionRepository,
	staffRepo secondary.StaffRepository,
	identity secondary.IdentityProvider,
	stations SiteVisibilityUpdater,
	notifier secondary.Notifier,
	contacts secondary.ContactDirectory,
	clock secondary.Clock,
	config ProviderConfig,
) *ProviderServiceImpl {
	return &ProviderServiceImpl{
		orgRepo:          orgRepo,
		verificationRepo: verificationRepo,
		commissionRepo:   commissionRepo,
		staffRepo:        staffRepo,
		identity:         identity,
		stations:         stations,
		notifier:         notifier,
		contacts:         contacts,
		clock:            clock,
		config:           config,
	}
}

func (s *ProviderServiceImpl) today() time.Time {
	return commission.Day(s.clock.Now())
}

// GetVerification returns the verification of an organisation, creating
// it with type-driven defaults if it does not exist yet.
func (s *ProviderServiceImpl) GetVerification(ctx context.Context, organisationID string) (*primary.Verification, error) {
	record, err := s.loadVerification(ctx, organisationID)
	if err != nil {
		return nil, err
	}
	return recordToVerification(record), nil
}

// CheckManagerInfo evaluates the manager documentation and applies the
// resulting staff tag changes.
func (s *ProviderServiceImpl) CheckManagerInfo(ctx context.Context, organisationID string) (verification.MgrInfoStatus, error) {
	org, err := s.orgRepo.GetByID(ctx, organisationID)
	if err != nil {
		return "", fmt.Errorf("organisation %s not found: %w", organisationID, err)
	}

	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get identity: %w", err)
	}

	managers, err := s.staffRepo.ListManagers(ctx, organisationID)
	if err != nil {
		return "", fmt.Errorf("failed to list managers: %w", err)
	}

	input := verification.ManagerCheckInput{
		InGroup:    s.config.TestStationsGroup != "" && org.OrgGroup == s.config.TestStationsGroup,
		Privileged: identity.Privileged(),
	}
	for _, m := range managers {
		dhash, hasDHash := m.Tags[verification.TagDHash]
		input.Managers = append(input.Managers, verification.ManagerInput{
			StaffID:     m.StaffID,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			DateOfBirth: m.DateOfBirth,
			HasContact:  m.HasContact,
			Documents:   m.Tags,
			DHash:       dhash,
			HasDHash:    hasDHash,
		})
	}

	result := verification.CheckManagers(input)

	for _, action := range result.Actions {
		if err := s.applyManagerAction(ctx, action); err != nil {
			return "", err
		}
	}

	return result.Status, nil
}

func (s *ProviderServiceImpl) applyManagerAction(ctx context.Context, action verification.ManagerAction) error {
	tags := map[string]string{}
	if action.ResetDocuments {
		for _, tag := range verification.DocumentTags {
			tags[tag] = verification.DocRevise
		}
		slog.Info("manager documents reset", "staff", action.StaffID)
	}
	if action.DHashOp == verification.DHashSet {
		tags[verification.TagDHash] = action.DHashValue
	}
	if len(tags) > 0 {
		if err := s.staffRepo.SetTags(ctx, action.StaffID, tags); err != nil {
			return fmt.Errorf("failed to update staff tags: %w", err)
		}
	}
	if action.DHashOp == verification.DHashDelete {
		if err := s.staffRepo.DeleteTag(ctx, action.StaffID, verification.TagDHash); err != nil {
			return fmt.Errorf("failed to remove staff data hash: %w", err)
		}
	}
	return nil
}

// UpdateVerification re-derives the verification status and suspends or
// reinstates commissions accordingly.
func (s *ProviderServiceImpl) UpdateVerification(ctx context.Context, organisationID string) (*primary.Verification, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	if result := verification.CanUpdate(organisationID, identity.Role, identity.OrganisationID); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	record, err := s.loadVerification(ctx, organisationID)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, organisationID)
	if err != nil {
		return nil, err
	}

	updated := *record
	if vhash := verification.TypesHash(profile); vhash != record.DHash {
		// organisation types changed, back to defaults
		status, err := s.defaults(ctx, organisationID, profile)
		if err != nil {
			return nil, err
		}
		updated.DHash = vhash
		updated.OrgType = status.OrgType
		updated.MgrInfo = status.MgrInfo
		updated.Accepted = status.Accepted
	} else {
		checked := verification.MgrInfoStatus("")
		if profile.MinfoReq() {
			if checked, err = s.CheckManagerInfo(ctx, organisationID); err != nil {
				return nil, err
			}
		}
		updated.MgrInfo = verification.RequiredMgrInfo(profile, checked)
		updated.Accepted = verification.IsAccepted(updated.OrgType, updated.MgrInfo)
	}

	if updated != *record {
		updated.UpdatedAt = s.clock.Now()
		if err := s.verificationRepo.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to update verification: %w", err)
		}
		if updated.Accepted != record.Accepted {
			metrics.VerificationUpdates.WithLabelValues(strconv.FormatBool(updated.Accepted)).Inc()
			slog.Info("verification status changed",
				"organisation", organisationID,
				"orgtype", updated.OrgType,
				"mgrinfo", updated.MgrInfo,
				"accepted", updated.Accepted,
			)
		}
	}

	if updated.Accepted {
		_, err = s.ReinstateCommission(ctx, organisationID, commission.ReasonNotVerified)
	} else {
		_, err = s.SuspendCommission(ctx, organisationID, commission.ReasonNotVerified)
	}
	if err != nil {
		return nil, err
	}

	return recordToVerification(&updated), nil
}

// SetOrgTypeStatus sets the organisation type verification.
func (s *ProviderServiceImpl) SetOrgTypeStatus(ctx context.Context, req primary.SetOrgTypeRequest) (*primary.Verification, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	record, err := s.loadVerification(ctx, req.OrganisationID)
	if err != nil {
		return nil, err
	}
	profile, err := s.loadProfile(ctx, req.OrganisationID)
	if err != nil {
		return nil, err
	}

	guardCtx := verification.SetOrgTypeContext{
		OrganisationID: req.OrganisationID,
		Role:           identity.Role,
		VerifReq:       profile.VerifReq(),
		Current:        record.OrgType,
		Requested:      req.Status,
	}
	if result := verification.CanSetOrgType(guardCtx); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	if req.Status != record.OrgType {
		record.OrgType = req.Status
		record.Accepted = verification.IsAccepted(record.OrgType, record.MgrInfo)
		record.UpdatedAt = s.clock.Now()
		if err := s.verificationRepo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to update verification: %w", err)
		}
	}

	return s.UpdateVerification(ctx, req.OrganisationID)
}

// SetOrganisationTypes replaces the organisation types and updates the
// verification.
func (s *ProviderServiceImpl) SetOrganisationTypes(ctx context.Context, req primary.SetOrganisationTypesRequest) (*primary.Verification, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	if result := verification.CanChangeTypes(req.OrganisationID, identity.Role); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	// make sure the verification exists before the types change,
	// otherwise it would be created with the new types' hash
	if _, err := s.loadVerification(ctx, req.OrganisationID); err != nil {
		return nil, err
	}

	if err := s.orgRepo.SetTypes(ctx, req.OrganisationID, req.TypeIDs); err != nil {
		return nil, fmt.Errorf("failed to set organisation types: %w", err)
	}

	return s.UpdateVerification(ctx, req.OrganisationID)
}

// SetManagerDocuments sets the document review tags of a manager and
// updates the verification.
func (s *ProviderServiceImpl) SetManagerDocuments(ctx context.Context, req primary.ManagerDocumentsRequest) (*primary.Verification, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	guardCtx := verification.ReviewDocumentsContext{
		StaffID:   req.StaffID,
		Role:      identity.Role,
		Documents: req.Documents,
	}
	if result := verification.CanReviewDocuments(guardCtx); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	manager, err := s.staffRepo.GetManager(ctx, req.StaffID)
	if err != nil {
		return nil, fmt.Errorf("manager %s not found: %w", req.StaffID, err)
	}

	if err := s.staffRepo.SetTags(ctx, req.StaffID, req.Documents); err != nil {
		return nil, fmt.Errorf("failed to update manager documents: %w", err)
	}

	return s.UpdateVerification(ctx, manager.OrganisationID)
}

// UpdateManagerPerson changes the person data of a manager and updates
// the verification.
func (s *ProviderServiceImpl) UpdateManagerPerson(ctx context.Context, req primary.ManagerPersonRequest) (*primary.Verification, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	manager, err := s.staffRepo.GetManager(ctx, req.StaffID)
	if err != nil {
		return nil, fmt.Errorf("manager %s not found: %w", req.StaffID, err)
	}
	if result := verification.CanUpdate(manager.OrganisationID, identity.Role, identity.OrganisationID); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	person := secondary.PersonData{
		FirstName:   manager.FirstName,
		LastName:    manager.LastName,
		DateOfBirth: manager.DateOfBirth,
	}
	if req.FirstName != nil {
		person.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		person.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth != "" {
			if _, err := time.Parse(time.DateOnly, *req.DateOfBirth); err != nil {
				return nil, fmt.Errorf("invalid date of birth %q: %w", *req.DateOfBirth, err)
			}
		}
		person.DateOfBirth = *req.DateOfBirth
	}

	if err := s.staffRepo.UpdatePerson(ctx, req.StaffID, person); err != nil {
		return nil, fmt.Errorf("failed to update person: %w", err)
	}

	return s.UpdateVerification(ctx, manager.OrganisationID)
}

// SuspendCommission suspends all current commissions of an organisation
// and de-lists its sites.
func (s *ProviderServiceImpl) SuspendCommission(ctx context.Context, organisationID string, reason commission.Reason) (int, error) {
	if reason == commission.ReasonNone || !reason.Valid() {
		return 0, fmt.Errorf("invalid suspension reason %q", reason)
	}

	updated, err := s.commissionRepo.SuspendCurrent(ctx, organisationID, reason, s.today())
	if err != nil {
		return 0, fmt.Errorf("failed to suspend commissions: %w", err)
	}
	if updated > 0 {
		metrics.CommissionTransitions.WithLabelValues(string(commission.StatusSuspended)).Add(float64(updated))
		slog.Info("commissions suspended", "organisation", organisationID, "reason", reason, "count", updated)
		s.notifySoft(ctx, organisationID, commission.StatusSuspended, reason)
	}

	s.syncListings(ctx, organisationID, commission.StatusSuspended)

	return updated, nil
}

// ReinstateCommission reinstates commissions suspended for reason and
// re-lists the sites that were de-listed for lack of a commission.
func (s *ProviderServiceImpl) ReinstateCommission(ctx context.Context, organisationID string, reason commission.Reason) (int, error) {
	if reason == commission.ReasonNone || !reason.Valid() {
		return 0, fmt.Errorf("invalid reinstatement reason %q", reason)
	}

	updated, err := s.commissionRepo.ReinstateSuspended(ctx, organisationID, reason, s.today())
	if err != nil {
		return 0, fmt.Errorf("failed to reinstate commissions: %w", err)
	}
	if updated > 0 {
		metrics.CommissionTransitions.WithLabelValues(string(commission.StatusCurrent)).Add(float64(updated))
		slog.Info("commissions reinstated", "organisation", organisationID, "reason", reason, "count", updated)
		s.notifySoft(ctx, organisationID, commission.StatusCurrent, reason)
	}

	s.syncListings(ctx, organisationID, commission.StatusCurrent)

	return updated, nil
}

// CurrentCommission returns the commission valid today, or nil.
func (s *ProviderServiceImpl) CurrentCommission(ctx context.Context, organisationID string) (*primary.Commission, error) {
	record, err := s.currentCommission(ctx, organisationID)
	if err != nil || record == nil {
		return nil, err
	}
	return recordToCommission(record), nil
}

func (s *ProviderServiceImpl) currentCommission(ctx context.Context, organisationID string) (*secondary.CommissionRecord, error) {
	return findCurrentCommission(ctx, s.commissionRepo, organisationID, s.today())
}

// ValidateCommission checks a commission form without saving it.
func (s *ProviderServiceImpl) ValidateCommission(ctx context.Context, form primary.CommissionForm) (commission.FormErrors, error) {
	var existing *secondary.CommissionRecord
	if form.CommissionID != "" {
		record, err := s.commissionRepo.GetByID(ctx, form.CommissionID)
		if err != nil {
			return nil, fmt.Errorf("commission %s not found: %w", form.CommissionID, err)
		}
		existing = record
	}
	return s.validate(ctx, form, existing)
}

func (s *ProviderServiceImpl) validate(ctx context.Context, form primary.CommissionForm, existing *secondary.CommissionRecord) (commission.FormErrors, error) {
	merged := mergeCommissionForm(form, existing)

	v, err := s.loadVerification(ctx, merged.OrganisationID)
	if err != nil {
		return nil, err
	}

	others, err := s.commissionRepo.List(ctx, secondary.CommissionFilters{OrganisationID: merged.OrganisationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	periods := make([]commission.Period, 0, len(others))
	for _, o := range others {
		periods = append(periods, o.Period())
	}

	in := commission.ValidationInput{
		CommissionID: form.CommissionID,
		Date:         merged.Date,
		EndDate:      merged.EndDate,
		Status:       merged.Status,
		Submitted: commission.Submitted{
			Date:         form.Date != nil,
			EndDate:      form.EndDate != nil || form.ClearEndDate,
			Status:       form.Status != nil,
			StatusReason: form.StatusReason != nil,
		},
		Accepted: v.Accepted,
		Others:   periods,
		Today:    s.clock.Now(),
	}
	if form.StatusReason != nil {
		in.StatusReason = *form.StatusReason
	}

	return commission.Validate(in), nil
}

// mergeCommissionForm applies the submitted form fields over the stored
// commission (or the defaults of a new one).
func mergeCommissionForm(form primary.CommissionForm, existing *secondary.CommissionRecord) secondary.CommissionRecord {
	var merged secondary.CommissionRecord
	if existing != nil {
		merged = *existing
	} else {
		merged = secondary.CommissionRecord{
			OrganisationID: form.OrganisationID,
			Status:         commission.InitialStatus(),
		}
	}

	if form.Date != nil {
		merged.Date = commission.Day(*form.Date)
	}
	switch {
	case form.ClearEndDate:
		merged.EndDate = nil
	case form.EndDate != nil:
		end := commission.Day(*form.EndDate)
		merged.EndDate = &end
	}
	if form.Status != nil {
		merged.Status = *form.Status
	}
	if form.StatusReason != nil {
		merged.StatusReason = commission.Reason(*form.StatusReason)
	}
	if form.Comments != nil {
		merged.Comments = *form.Comments
	}
	return merged
}

// AcceptCommission applies the post-save corrections and cascades of a
// saved commission. A missing commission is a no-op.
func (s *ProviderServiceImpl) AcceptCommission(ctx context.Context, commissionID string) (*primary.Commission, error) {
	record, err := s.commissionRepo.GetByID(ctx, commissionID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	v, err := s.loadVerification(ctx, record.OrganisationID)
	if err != nil {
		return nil, err
	}

	plan := commission.PlanAccept(commission.AcceptInput{
		Status:       record.Status,
		PrevStatus:   record.PrevStatus,
		StatusReason: record.StatusReason,
		EndDate:      record.EndDate,
		Accepted:     v.Accepted,
		Today:        s.clock.Now(),
	})

	if plan.Update {
		record.Status = plan.Status
		record.StatusReason = plan.StatusReason
		record.PrevStatus = plan.PrevStatus
		if plan.StatusDate != nil {
			record.StatusDate = plan.StatusDate
		}
		if err := s.commissionRepo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to update commission: %w", err)
		}
	}

	if plan.StatusChanged {
		metrics.CommissionTransitions.WithLabelValues(string(plan.Status)).Inc()
		slog.Info("commission status changed",
			"commission", record.ID,
			"organisation", record.OrganisationID,
			"status", plan.Status,
			"reason", plan.StatusReason,
		)

		s.notifySoft(ctx, record.OrganisationID, plan.Status, plan.StatusReason)
	}

	// a current commission may have moved in or out of today
	if plan.StatusChanged || record.Status == commission.StatusCurrent {
		s.syncListings(ctx, record.OrganisationID, record.Status)
	}

	return recordToCommission(record), nil
}

// syncListings applies cascadeCommission and logs failures, the commission
// change itself stands.
func (s *ProviderServiceImpl) syncListings(ctx context.Context, organisationID string, status commission.Status) {
	if err := s.cascadeCommission(ctx, organisationID, status); err != nil {
		slog.Warn("site listings not updated",
			"organisation", organisationID,
			"status", status,
			"error", err,
		)
	}
}

// cascadeCommission updates the site listings after a commission status
// change. Sites are only listed when a commission is current today, and
// only de-listed when none is.
func (s *ProviderServiceImpl) cascadeCommission(ctx context.Context, organisationID string, status commission.Status) error {
	current, err := s.currentCommission(ctx, organisationID)
	if err != nil {
		return err
	}

	switch {
	case current != nil:
		if status != commission.StatusCurrent {
			return nil
		}
		_, err = s.stations.UpdateAll(ctx, organisationID, siteapproval.PublicYes, siteapproval.ReasonCommission)
	default:
		_, err = s.stations.UpdateAll(ctx, organisationID, siteapproval.PublicNo, siteapproval.ReasonCommission)
	}
	if err != nil {
		return fmt.Errorf("failed to update site listings: %w", err)
	}
	return nil
}

// CreateCommission validates, saves and accepts a new commission.
func (s *ProviderServiceImpl) CreateCommission(ctx context.Context, form primary.CommissionForm) (*primary.Commission, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if _, err := s.orgRepo.GetByID(ctx, form.OrganisationID); err != nil {
		return nil, fmt.Errorf("organisation %s not found: %w", form.OrganisationID, err)
	}
	v, err := s.loadVerification(ctx, form.OrganisationID)
	if err != nil {
		return nil, err
	}

	policy := commission.CommissionFormPolicy(identity.Role, v.Accepted, false, "")
	if result := commission.CanCreate(form.OrganisationID, policy); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	// status of new commissions is not selectable
	form.Status = nil

	errs, err := s.validate(ctx, form, nil)
	if err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		return nil, errs
	}

	id, err := s.commissionRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate commission ID: %w", err)
	}

	record := mergeCommissionForm(form, nil)
	record.ID = id

	if err := s.commissionRepo.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to create commission: %w", err)
	}

	return s.AcceptCommission(ctx, id)
}

// UpdateCommission validates, saves and accepts a commission change.
func (s *ProviderServiceImpl) UpdateCommission(ctx context.Context, form primary.CommissionForm) (*primary.Commission, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	existing, err := s.commissionRepo.GetByID(ctx, form.CommissionID)
	if err != nil {
		return nil, fmt.Errorf("commission %s not found: %w", form.CommissionID, err)
	}
	form.OrganisationID = existing.OrganisationID

	v, err := s.loadVerification(ctx, existing.OrganisationID)
	if err != nil {
		return nil, err
	}

	editCtx := commission.EditContext{
		CommissionID: existing.ID,
		Policy:       commission.CommissionFormPolicy(identity.Role, v.Accepted, true, existing.Status),
		Current:      existing.Status,
	}
	if form.Status != nil {
		editCtx.Requested = *form.Status
	}
	if result := commission.CanEdit(editCtx); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	errs, err := s.validate(ctx, form, existing)
	if err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		return nil, errs
	}

	record := mergeCommissionForm(form, existing)
	if err := s.commissionRepo.Update(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to update commission: %w", err)
	}

	return s.AcceptCommission(ctx, record.ID)
}

// ListCommissions lists the commissions of an organisation, newest first.
func (s *ProviderServiceImpl) ListCommissions(ctx context.Context, organisationID string) ([]*primary.Commission, error) {
	records, err := s.commissionRepo.List(ctx, secondary.CommissionFilters{OrganisationID: organisationID})
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	commissions := make([]*primary.Commission, len(records))
	for i, r := range records {
		commissions[i] = recordToCommission(r)
	}
	return commissions, nil
}

// ExpireCommissions runs the accept hook over all active commissions past
// their end date.
func (s *ProviderServiceImpl) ExpireCommissions(ctx context.Context) ([]string, error) {
	today := s.today()
	records, err := s.commissionRepo.List(ctx, secondary.CommissionFilters{
		Statuses:  []commission.Status{commission.StatusCurrent, commission.StatusSuspended},
		EndBefore: &today,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	var expired []string
	for _, r := range records {
		c, err := s.AcceptCommission(ctx, r.ID)
		if err != nil {
			return expired, fmt.Errorf("failed to expire commission %s: %w", r.ID, err)
		}
		if c != nil && c.Status == string(commission.StatusExpired) {
			expired = append(expired, c.ID)
		}
	}
	return expired, nil
}

// VerificationFormConfig returns the verification form policy for the
// acting user.
func (s *ProviderServiceImpl) VerificationFormConfig(ctx context.Context, organisationID string) (*verification.FormPolicy, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if _, err := s.orgRepo.GetByID(ctx, organisationID); err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			policy := verification.VerificationFormPolicy(identity.Role, false, verification.Profile{}, "")
			return &policy, nil
		}
		return nil, fmt.Errorf("failed to get organisation: %w", err)
	}

	record, err := s.loadVerification(ctx, organisationID)
	if err != nil {
		return nil, err
	}
	profile, err := s.loadProfile(ctx, organisationID)
	if err != nil {
		return nil, err
	}

	policy := verification.VerificationFormPolicy(identity.Role, true, profile, record.OrgType)
	return &policy, nil
}

// CommissionFormConfig returns the commission form policy for the acting
// user. commissionID is empty for new commissions.
func (s *ProviderServiceImpl) CommissionFormConfig(ctx context.Context, organisationID, commissionID string) (*commission.FormPolicy, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	accepted := false
	if organisationID != "" {
		record, err := s.loadVerification(ctx, organisationID)
		if err != nil {
			return nil, err
		}
		accepted = record.Accepted
	}

	exists := false
	var current commission.Status
	if commissionID != "" {
		record, err := s.commissionRepo.GetByID(ctx, commissionID)
		if err != nil {
			return nil, fmt.Errorf("commission %s not found: %w", commissionID, err)
		}
		exists = true
		current = record.Status
	}

	policy := commission.CommissionFormPolicy(identity.Role, accepted, exists, current)
	return &policy, nil
}

// AddDefaultTags adds the DELIVERY and OrgID tags if missing.
func (s *ProviderServiceImpl) AddDefaultTags(ctx context.Context, organisationID string) (map[string]string, error) {
	org, err := s.orgRepo.GetByID(ctx, organisationID)
	if err != nil {
		return nil, fmt.Errorf("organisation %s not found: %w", organisationID, err)
	}

	existing, err := s.orgRepo.GetTags(ctx, organisationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organisation tags: %w", err)
	}

	missing := organisation.DefaultTags(existing, func() string {
		uid, err := organisation.UIDNumber(org.UUID)
		if err != nil {
			uid, _ = organisation.UIDNumber(uuid.NewString())
		}
		return organisation.OrgIDTag(uid, organisation.ParseOrgNumber(org.ID))
	})

	for tag, value := range missing {
		if err := s.orgRepo.AddTag(ctx, organisationID, tag, value); err != nil {
			return nil, fmt.Errorf("failed to add tag %s: %w", tag, err)
		}
	}
	return missing, nil
}

// NotifyCommissionChange notifies the organisation administrators of a
// commission status change.
func (s *ProviderServiceImpl) NotifyCommissionChange(ctx context.Context, organisationID string, status commission.Status, reason commission.Reason) error {
	org, err := s.orgRepo.GetByID(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("organisation not found: %w", err)
	}

	recipients, err := s.contacts.RoleEmails(ctx, access.AuthOrgAdmin, organisationID)
	if err != nil {
		return fmt.Errorf("failed to look up organisation administrators: %w", err)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	return sendNotification(ctx, s.notifier, secondary.Notification{
		ID:         uuid.NewString(),
		Template:   commission.TemplateCommissionChange,
		Recipients: recipients,
		Module:     "org",
		Resource:   "commission",
		Data:       commission.NotificationData(org.Name, status, reason),
		CreatedAt:  s.clock.Now(),
	})
}

// notifySoft sends a commission change notification; failures are
// logged, the status change stands.
func (s *ProviderServiceImpl) notifySoft(ctx context.Context, organisationID string, status commission.Status, reason commission.Reason) {
	if err := s.NotifyCommissionChange(ctx, organisationID, status, reason); err != nil {
		slog.Warn("provider could not be notified", "organisation", organisationID, "status", status, "err", err)
	}
}

func (s *ProviderServiceImpl) loadProfile(ctx context.Context, organisationID string) (verification.Profile, error) {
	tags, err := s.orgRepo.GetTypeTags(ctx, organisationID)
	if err != nil {
		return verification.Profile{}, fmt.Errorf("failed to get organisation types: %w", err)
	}
	return verification.Profile{Types: verification.TypeTags(tags)}, nil
}

func (s *ProviderServiceImpl) defaults(ctx context.Context, organisationID string, profile verification.Profile) (verification.Status, error) {
	checked := verification.MgrInfoStatus("")
	if profile.MinfoReq() {
		var err error
		if checked, err = s.CheckManagerInfo(ctx, organisationID); err != nil {
			return verification.Status{}, err
		}
	}
	return verification.Defaults(profile, checked), nil
}

// loadVerification returns the stored verification, creating it with
// defaults on first access.
func (s *ProviderServiceImpl) loadVerification(ctx context.Context, organisationID string) (*secondary.VerificationRecord, error) {
	record, err := s.verificationRepo.Get(ctx, organisationID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	if _, err := s.orgRepo.GetByID(ctx, organisationID); err != nil {
		return nil, fmt.Errorf("organisation %s not found: %w", organisationID, err)
	}

	profile, err := s.loadProfile(ctx, organisationID)
	if err != nil {
		return nil, err
	}
	status, err := s.defaults(ctx, organisationID, profile)
	if err != nil {
		return nil, err
	}

	record = &secondary.VerificationRecord{
		OrganisationID: organisationID,
		DHash:          verification.TypesHash(profile),
		OrgType:        status.OrgType,
		MgrInfo:        status.MgrInfo,
		Accepted:       status.Accepted,
		UpdatedAt:      s.clock.Now(),
	}
	if err := s.verificationRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create verification: %w", err)
	}
	return record, nil
}

func recordToVerification(r *secondary.VerificationRecord) *primary.Verification {
	return &primary.Verification{
		OrganisationID: r.OrganisationID,
		OrgType:        string(r.OrgType),
		MgrInfo:        string(r.MgrInfo),
		Accepted:       r.Accepted,
	}
}

func recordToCommission(r *secondary.CommissionRecord) *primary.Commission {
	c := &primary.Commission{
		ID:             r.ID,
		OrganisationID: r.OrganisationID,
		Date:           formatDate(&r.Date),
		EndDate:        formatDate(r.EndDate),
		Status:         string(r.Status),
		StatusDate:     formatDate(r.StatusDate),
		StatusReason:   string(r.StatusReason),
		Comments:       r.Comments,
	}
	return c
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Ensure ProviderServiceImpl implements the interface
var _ primary.ProviderService = (*ProviderServiceImpl)(nil)
