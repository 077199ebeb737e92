package app

import (
	"context"
	"fmt"

	"github.com/nursix/gims/internal/ports/primary"
	"github.com/nursix/gims/internal/ports/secondary"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.AuditLogRepository
}

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(logRepo secondary.AuditLogRepository) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
	}
}

// ListLogs retrieves audit log entries matching the given filters.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	records, err := s.logRepo.List(ctx, secondary.AuditLogFilters{
		OrganisationID: filters.OrganisationID,
		EntityType:     filters.EntityType,
		EntityID:       filters.EntityID,
		ActorID:        filters.ActorID,
		Limit:          filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.LogEntry{
			ID:             r.ID,
			OrganisationID: r.OrganisationID,
			Timestamp:      r.Timestamp,
			ActorID:        r.ActorID,
			EntityType:     r.EntityType,
			EntityID:       r.EntityID,
			Action:         r.Action,
			FieldName:      r.FieldName,
			OldValue:       r.OldValue,
			NewValue:       r.NewValue,
		}
	}
	return entries, nil
}

// PruneLogs deletes log entries older than the specified number of days.
func (s *LogServiceImpl) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", olderThanDays)
	}
	return s.logRepo.PruneOlderThan(ctx, olderThanDays)
}

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
