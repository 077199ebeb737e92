package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/core/organisation"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/metrics"
	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// User-facing messages of the approval workflow.
const (
	MsgAddedToRegistry     = "Facility added to public registry"
	MsgRemovedFromRegistry = "Facility removed from public registry pending review"
	MsgLocationChanged     = "Facility location changed since approval, review required"
	MsgNotified            = "Test station notified"
	MsgNotifyFailed        = "Test station could not be notified: %s"
)

// StationConfig holds the settings of the site approval workflow.
type StationConfig struct {
	// BaseURL is prepended to links in notifications.
	BaseURL string
}

// StationServiceImpl implements the StationService interface.
type StationServiceImpl struct {
	siteRepo       secondary.SiteRepository
	approvalRepo   secondary.SiteApprovalRepository
	commissionRepo secondary.CommissionRepository
	identity       secondary.IdentityProvider
	notifier       secondary.Notifier
	contacts       secondary.ContactDirectory
	texts          secondary.RequirementTexts
	cache          secondary.RegistryCache
	clock          secondary.Clock
	config         StationConfig
	pick           func(n int) int
}

// NewStationService creates a new StationService with injected dependencies.
func NewStationService(
	siteRepo secondary.SiteRepository,
	approvalRepo secondary.SiteApprovalRepository,
	commissionRepo secondary.CommissionRepository,
	identity secondary.IdentityProvider,
	notifier secondary.Notifier,
	contacts secondary.ContactDirectory,
	texts secondary.RequirementTexts,
	cache secondary.RegistryCache,
	clock secondary.Clock,
	config StationConfig,
) *StationServiceImpl {
	return &StationServiceImpl{
		siteRepo:       siteRepo,
		approvalRepo:   approvalRepo,
		commissionRepo: commissionRepo,
		identity:       identity,
		notifier:       notifier,
		contacts:       contacts,
		texts:          texts,
		cache:          cache,
		clock:          clock,
		config:         config,
		pick:           rand.IntN,
	}
}

// GetApproval returns the approval of a site, creating it with defaults
// if it does not exist yet.
func (s *StationServiceImpl) GetApproval(ctx context.Context, siteID string) (*primary.SiteApproval, error) {
	record, err := s.loadApproval(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return recordToSiteApproval(record), nil
}

// CheckIntegrity reports whether the approval of a site would be
// overturned because its location changed since approval.
func (s *StationServiceImpl) CheckIntegrity(ctx context.Context, siteID string) (*primary.IntegrityResult, error) {
	record, err := s.loadApproval(ctx, siteID)
	if err != nil {
		return nil, err
	}
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("site %s not found: %w", siteID, err)
	}
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	vhash := siteapproval.LocationHash(site.Location)
	update, downgraded := siteapproval.CheckIntegrity(record.Approval, vhash, identity.Privileged())

	result := &primary.IntegrityResult{SiteID: siteID, VHash: vhash, Intact: !downgraded}
	if downgraded {
		result.Downgraded = string(*update.Status)
	}
	return result, nil
}

// UpdateApproval re-evaluates the approval workflow of a site. Returns
// nil if the site does not exist.
func (s *StationServiceImpl) UpdateApproval(ctx context.Context, siteID string, commissioned *bool) (*primary.ApprovalResult, error) {
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	record, err := s.loadApproval(ctx, siteID)
	if err != nil {
		return nil, err
	}

	if commissioned == nil {
		current, err := findCurrentCommission(ctx, s.commissionRepo, site.OrganisationID, commission.Day(s.clock.Now()))
		if err != nil {
			return nil, err
		}
		c := current != nil
		commissioned = &c
	}

	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	plan := siteapproval.PlanUpdate(siteapproval.UpdateInput{
		Approval:     record.Approval,
		VHash:        siteapproval.LocationHash(site.Location),
		Privileged:   identity.Privileged(),
		Commissioned: *commissioned,
	})

	result := &primary.ApprovalResult{Changed: plan.Changed, PublicChanged: plan.PublicChanged}

	if plan.Changed {
		previous := record.Approval
		record.Approval = plan.Result
		if err := s.approvalRepo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to update approval: %w", err)
		}
		if err := s.UpdateApprovalHistory(ctx, siteID); err != nil {
			return nil, err
		}
		if previous.Status != plan.Result.Status {
			metrics.ApprovalTransitions.WithLabelValues(string(plan.Result.Status)).Inc()
			slog.Info("site approval status changed", "site", siteID, "from", previous.Status, "to", plan.Result.Status)
		}
	}

	if plan.Integrity {
		metrics.IntegrityDowngrades.Inc()
		slog.Info("site approval overturned by location change", "site", siteID, "status", plan.Result.Status)
		result.Messages.Information = MsgLocationChanged
	}

	if plan.PublicChanged {
		s.registryChanged(ctx, plan.Result.Public, 1)
		if plan.Result.Public == siteapproval.PublicYes {
			result.Messages.Information = MsgAddedToRegistry
		} else {
			result.Messages.Information = MsgRemovedFromRegistry
		}
	}

	if plan.Notify {
		if err := s.NotifyApprovalChange(ctx, siteID); err != nil {
			slog.Warn("test station could not be notified", "site", siteID, "err", err)
			result.Messages.Warning = fmt.Sprintf(MsgNotifyFailed, err)
		} else {
			result.Notified = true
			result.Messages.Flash = MsgNotified
		}
	}

	result.Approval = recordToSiteApproval(record)
	return result, nil
}

// UpdateAll changes the listing of all sites of an organisation. Listing
// only applies to fully approved sites unlisted for one of reasons;
// unlisting requires a reason.
func (s *StationServiceImpl) UpdateAll(ctx context.Context, organisationID string, public siteapproval.Public, reasons ...siteapproval.PublicReason) (int, error) {
	if !public.Valid() {
		return 0, fmt.Errorf("invalid listing value %q", public)
	}
	if public == siteapproval.PublicNo && (len(reasons) == 0 || reasons[0] == siteapproval.ReasonNone) {
		return 0, fmt.Errorf("reason required")
	}

	changed, err := s.approvalRepo.SetVisibility(ctx, organisationID, public, reasons)
	if err != nil {
		return 0, fmt.Errorf("failed to update site listings: %w", err)
	}

	for _, siteID := range changed {
		if err := s.UpdateApprovalHistory(ctx, siteID); err != nil {
			return len(changed), err
		}
	}

	if len(changed) > 0 {
		s.registryChanged(ctx, public, len(changed))
		slog.Info("site listings updated", "organisation", organisationID, "public", public, "count", len(changed))
	}

	return len(changed), nil
}

// UpdateApprovalHistory records the current approval status of a site
// if it differs from the last recorded one.
func (s *StationServiceImpl) UpdateApprovalHistory(ctx context.Context, siteID string) error {
	record, err := s.approvalRepo.Get(ctx, siteID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get approval: %w", err)
	}

	last, err := s.approvalRepo.LastHistory(ctx, siteID)
	if err != nil && !errors.Is(err, secondary.ErrNotFound) {
		return fmt.Errorf("failed to get approval history: %w", err)
	}

	now := s.clock.Now()
	var action siteapproval.HistoryAction
	if last != nil {
		action = siteapproval.PlanHistory(&last.Approval, last.Timestamp, record.Approval, now)
	} else {
		action = siteapproval.PlanHistory(nil, now, record.Approval, now)
	}

	switch action {
	case siteapproval.HistoryAppend:
		entry := &secondary.HistoryRecord{
			SiteID:    siteID,
			Timestamp: siteapproval.HistoryTimestamp(now),
			Approval:  record.Approval,
		}
		if err := s.approvalRepo.AppendHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to append approval history: %w", err)
		}
	case siteapproval.HistoryOverwrite:
		last.Approval = record.Approval
		if err := s.approvalRepo.ReplaceHistory(ctx, last); err != nil {
			return fmt.Errorf("failed to update approval history: %w", err)
		}
	}
	return nil
}

// History returns the approval history of a site, newest first.
func (s *StationServiceImpl) History(ctx context.Context, siteID string) ([]*primary.HistoryEntry, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		return nil, fmt.Errorf("site %s not found: %w", siteID, err)
	}

	records, err := s.approvalRepo.ListHistory(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}

	entries := make([]*primary.HistoryEntry, len(records))
	for i, r := range records {
		a := r.Approval
		entries[i] = &primary.HistoryEntry{
			Timestamp:    r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Status:       string(a.Status),
			MPAV:         string(a.MPAV),
			Hygiene:      string(a.Hygiene),
			Layout:       string(a.Layout),
			Public:       string(a.Public),
			PublicReason: string(a.PublicReason),
			Advice:       a.Advice,
		}
	}
	return entries, nil
}

// SaveApproval applies a manual edit within the limits of the acting
// user's form policy, then re-evaluates the workflow.
func (s *StationServiceImpl) SaveApproval(ctx context.Context, req primary.SaveApprovalRequest) (*primary.ApprovalResult, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	site, err := s.siteRepo.GetByID(ctx, req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("site %s not found: %w", req.SiteID, err)
	}
	if result := siteapproval.CheckScope(req.SiteID, site.OrganisationID, identity.Role, identity.OrganisationID); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}
	record, err := s.loadApproval(ctx, req.SiteID)
	if err != nil {
		return nil, err
	}

	change := siteapproval.Change{
		Status:  req.Status,
		MPAV:    req.MPAV,
		Hygiene: req.Hygiene,
		Layout:  req.Layout,
		Public:  req.Public,
		Advice:  req.Advice,
	}
	policy := siteapproval.ApprovalFormPolicy(identity.Role, true, record.Approval.Status)
	if result := siteapproval.CheckWrite(req.SiteID, policy, change); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	saved := siteapproval.NormalizeOnSave(siteapproval.ApplyChange(record.Approval, change))
	if saved != record.Approval || record.OrganisationID != site.OrganisationID {
		publicChanged := saved.Public != record.Approval.Public
		record.Approval = saved
		record.OrganisationID = site.OrganisationID
		if err := s.approvalRepo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save approval: %w", err)
		}
		if err := s.UpdateApprovalHistory(ctx, req.SiteID); err != nil {
			return nil, err
		}
		if publicChanged {
			s.registryChanged(ctx, saved.Public, 1)
		}
	}

	return s.UpdateApproval(ctx, req.SiteID, nil)
}

// UpdateLocation changes the address of a site and re-evaluates the
// workflow.
func (s *StationServiceImpl) UpdateLocation(ctx context.Context, req primary.UpdateLocationRequest) (*primary.ApprovalResult, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	site, err := s.siteRepo.GetByID(ctx, req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("site %s not found: %w", req.SiteID, err)
	}
	if result := siteapproval.CheckScope(req.SiteID, site.OrganisationID, identity.Role, identity.OrganisationID); !result.Allowed {
		return nil, primary.Denied(result.Error())
	}

	loc := siteapproval.Location{
		Parent:   req.Parent,
		Street:   req.Street,
		Postcode: req.Postcode,
	}
	if site.Location != nil {
		loc.ID = site.Location.ID
	}
	if err := s.siteRepo.UpdateLocation(ctx, req.SiteID, loc); err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	result, err := s.UpdateApproval(ctx, req.SiteID, nil)
	if err != nil {
		return nil, err
	}
	if result != nil && result.Approval != nil && result.Approval.Public == string(siteapproval.PublicYes) {
		// listed address changed
		s.invalidateRegistry(ctx)
	}
	return result, nil
}

// ApprovalFormConfig returns the approval form policy for the acting user.
func (s *StationServiceImpl) ApprovalFormConfig(ctx context.Context, siteID string) (*siteapproval.FormPolicy, error) {
	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	record, err := s.loadApproval(ctx, siteID)
	if err != nil {
		return nil, err
	}

	policy := siteapproval.ApprovalFormPolicy(identity.Role, true, record.Approval.Status)
	return &policy, nil
}

// AddFacilityCode generates a facility code if the site has none.
func (s *StationServiceImpl) AddFacilityCode(ctx context.Context, siteID string) (string, error) {
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("site %s not found: %w", siteID, err)
	}
	if site.Code != "" {
		return "", nil
	}

	uid, err := organisation.UIDNumber(site.UUID)
	if err != nil {
		uid, _ = organisation.UIDNumber(uuid.NewString())
	}
	code := organisation.FacilityCode(uid, s.pick)

	if err := s.siteRepo.SetCode(ctx, siteID, code); err != nil {
		return "", fmt.Errorf("failed to set facility code: %w", err)
	}
	return code, nil
}

// NotifyApprovalChange notifies the organisation administrators of a site
// about the review status. Only REVISE and APPROVED are notified.
func (s *StationServiceImpl) NotifyApprovalChange(ctx context.Context, siteID string) error {
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return fmt.Errorf("facility not found: %w", err)
	}
	if site.OrganisationID == "" {
		return fmt.Errorf("organisation not found")
	}

	recipients, err := s.contacts.RoleEmails(ctx, access.AuthOrgAdmin, site.OrganisationID)
	if err != nil {
		return fmt.Errorf("failed to look up organisation administrators: %w", err)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	record, err := s.approvalRepo.Get(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to get approval: %w", err)
	}
	template, err := siteapproval.NotificationTemplate(record.Approval.Status)
	if err != nil {
		return err
	}

	var explanations []string
	if record.Approval.Status == siteapproval.StatusRevise {
		for _, name := range siteapproval.RequirementPosts(record.Approval) {
			body, err := s.texts.PostBody(ctx, name)
			if errors.Is(err, secondary.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to get requirements %s: %w", name, err)
			}
			explanations = append(explanations, body)
		}
	}

	n := secondary.Notification{
		ID:         uuid.NewString(),
		Template:   template,
		Recipients: recipients,
		Module:     "org",
		Resource:   "facility",
		Data: siteapproval.NotificationData(
			site.Name,
			siteapproval.FacilityURL(s.config.BaseURL, site.OrganisationID, siteID),
			record.Approval,
			explanations,
		),
		CreatedAt: s.clock.Now(),
	}
	if identity, err := s.identity.CurrentIdentity(ctx); err == nil && identity.Email != "" {
		n.CC = []string{identity.Email}
	}

	return sendNotification(ctx, s.notifier, n)
}

// PublicRegistry lists all test stations in the public registry.
func (s *StationServiceImpl) PublicRegistry(ctx context.Context) ([]secondary.RegistryEntry, error) {
	entries, hit, err := s.cache.Get(ctx)
	if err != nil {
		slog.Warn("registry cache unavailable", "err", err)
	}
	if hit {
		metrics.RegistryCacheLookups.WithLabelValues("hit").Inc()
		return entries, nil
	}
	metrics.RegistryCacheLookups.WithLabelValues("miss").Inc()

	entries, err = s.approvalRepo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public registry: %w", err)
	}
	if entries, err = s.commissionedOnly(ctx, entries); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		slog.Warn("registry could not be cached", "err", err)
	}
	return entries, nil
}

// commissionedOnly drops the entries of organisations that have no
// commission current today, whatever their listing flag says.
func (s *StationServiceImpl) commissionedOnly(ctx context.Context, entries []secondary.RegistryEntry) ([]secondary.RegistryEntry, error) {
	today := commission.Day(s.clock.Now())
	commissioned := make(map[string]bool)

	result := make([]secondary.RegistryEntry, 0, len(entries))
	for _, entry := range entries {
		ok, seen := commissioned[entry.OrganisationID]
		if !seen {
			current, err := findCurrentCommission(ctx, s.commissionRepo, entry.OrganisationID, today)
			if err != nil {
				return nil, err
			}
			ok = current != nil
			commissioned[entry.OrganisationID] = ok
			if !ok {
				slog.Warn("listed sites without current commission", "organisation", entry.OrganisationID)
			}
		}
		if ok {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (s *StationServiceImpl) registryChanged(ctx context.Context, public siteapproval.Public, count int) {
	metrics.RegistryChanges.WithLabelValues(string(public)).Add(float64(count))
	s.invalidateRegistry(ctx)
}

func (s *StationServiceImpl) invalidateRegistry(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("registry cache could not be invalidated", "err", err)
	}
}

// loadApproval returns the stored approval of a site, creating it with
// defaults on first access.
func (s *StationServiceImpl) loadApproval(ctx context.Context, siteID string) (*secondary.SiteApprovalRecord, error) {
	record, err := s.approvalRepo.Get(ctx, siteID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}

	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("site %s not found: %w", siteID, err)
	}

	record = &secondary.SiteApprovalRecord{
		SiteID:         siteID,
		OrganisationID: site.OrganisationID,
		Approval:       siteapproval.Defaults(),
	}
	if err := s.approvalRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}
	if err := s.UpdateApprovalHistory(ctx, siteID); err != nil {
		return nil, err
	}
	return record, nil
}

func recordToSiteApproval(r *secondary.SiteApprovalRecord) *primary.SiteApproval {
	a := r.Approval
	return &primary.SiteApproval{
		SiteID:         r.SiteID,
		OrganisationID: r.OrganisationID,
		Status:         string(a.Status),
		MPAV:           string(a.MPAV),
		Hygiene:        string(a.Hygiene),
		Layout:         string(a.Layout),
		Public:         string(a.Public),
		PublicReason:   string(a.PublicReason),
		Advice:         a.Advice,
	}
}

// Ensure StationServiceImpl implements the interface
var _ primary.StationService = (*StationServiceImpl)(nil)
