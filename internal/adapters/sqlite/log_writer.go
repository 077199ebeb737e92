package sqlite

import (
	"context"

	"github.com/nursix/gims/internal/ctxutil"
	"github.com/nursix/gims/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter using AuditLogRepository.
type LogWriterAdapter struct {
	logRepo        secondary.AuditLogRepository
	commissionRepo secondary.CommissionRepository
	siteRepo       secondary.SiteRepository
	staffRepo      secondary.StaffRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
// The repositories resolve the organisation an entity belongs to; they
// should be constructed without a log writer themselves.
func NewLogWriterAdapter(logRepo secondary.AuditLogRepository, commissionRepo secondary.CommissionRepository,
	siteRepo secondary.SiteRepository, staffRepo secondary.StaffRepository,
) *LogWriterAdapter {
	return &LogWriterAdapter{
		logRepo:        logRepo,
		commissionRepo: commissionRepo,
		siteRepo:       siteRepo,
		staffRepo:      staffRepo,
	}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeLog(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

func (w *LogWriterAdapter) writeLog(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	id, err := w.logRepo.GetNextID(ctx)
	if err != nil {
		return err
	}

	record := &secondary.AuditLogRecord{
		ID:             id,
		OrganisationID: w.resolveOrganisation(ctx, entityType, entityID),
		ActorID:        ctxutil.ActorID(ctx),
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		FieldName:      fieldName,
		OldValue:       oldValue,
		NewValue:       newValue,
	}

	return w.logRepo.Create(ctx, record)
}

// resolveOrganisation returns the organisation an entity belongs to, or
// empty string if it cannot be resolved.
func (w *LogWriterAdapter) resolveOrganisation(ctx context.Context, entityType, entityID string) string {
	switch entityType {
	case "organisation", "verification":
		// Verifications are keyed by organisation
		return entityID
	case "commission":
		if w.commissionRepo != nil {
			if c, err := w.commissionRepo.GetByID(ctx, entityID); err == nil {
				return c.OrganisationID
			}
		}
	case "site", "site_approval":
		if w.siteRepo != nil {
			if s, err := w.siteRepo.GetByID(ctx, entityID); err == nil {
				return s.OrganisationID
			}
		}
	case "staff":
		if w.staffRepo != nil {
			if m, err := w.staffRepo.GetManager(ctx, entityID); err == nil {
				return m.OrganisationID
			}
		}
	}
	return ""
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
