package primary

import "context"

// LogService defines the primary port for the workflow audit log.
type LogService interface {
	// ListLogs retrieves log entries matching the given filters.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)

	// PruneLogs deletes log entries older than the specified number of days.
	PruneLogs(ctx context.Context, olderThanDays int) (int, error)
}

// LogEntry represents an audit log entry at the port boundary.
type LogEntry struct {
	ID             string `json:"id"`
	OrganisationID string `json:"organisation_id,omitempty"`
	Timestamp      string `json:"timestamp"`
	ActorID        string `json:"actor_id,omitempty"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	Action         string `json:"action"` // 'create', 'update'
	FieldName      string `json:"field_name,omitempty"`
	OldValue       string `json:"old_value,omitempty"`
	NewValue       string `json:"new_value,omitempty"`
}

// LogFilters contains filter options for querying logs.
type LogFilters struct {
	OrganisationID string
	EntityType     string
	EntityID       string
	ActorID        string
	Limit          int
}
