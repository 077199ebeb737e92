// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nursix/gims/internal/core/organisation"
	"github.com/nursix/gims/internal/ports/secondary"
)

// OrganisationRepository implements secondary.OrganisationRepository with SQLite.
type OrganisationRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewOrganisationRepository creates a new SQLite organisation repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewOrganisationRepository(db *sql.DB, logWriter secondary.LogWriter) *OrganisationRepository {
	return &OrganisationRepository{db: db, logWriter: logWriter}
}

// Create persists a new organisation.
func (r *OrganisationRepository) Create(ctx context.Context, org *secondary.OrganisationRecord) error {
	if org.ID == "" {
		return fmt.Errorf("organisation ID must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organisations (id, name, uuid, org_group) VALUES (?, ?, ?, ?)",
		org.ID, org.Name, org.UUID, nullString(org.OrgGroup),
	)
	if err != nil {
		return fmt.Errorf("failed to create organisation: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "organisation", org.ID)
	}

	return nil
}

// GetByID retrieves an organisation by its ID.
func (r *OrganisationRepository) GetByID(ctx context.Context, id string) (*secondary.OrganisationRecord, error) {
	var group sql.NullString

	record := &secondary.OrganisationRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, uuid, org_group FROM organisations WHERE id = ?",
		id,
	).Scan(&record.ID, &record.Name, &record.UUID, &group)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organisation %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organisation: %w", err)
	}

	record.OrgGroup = group.String
	return record, nil
}

// List retrieves all organisations.
func (r *OrganisationRepository) List(ctx context.Context) ([]*secondary.OrganisationRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, uuid, org_group FROM organisations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list organisations: %w", err)
	}
	defer rows.Close()

	var orgs []*secondary.OrganisationRecord
	for rows.Next() {
		var group sql.NullString
		record := &secondary.OrganisationRecord{}
		if err := rows.Scan(&record.ID, &record.Name, &record.UUID, &group); err != nil {
			return nil, fmt.Errorf("failed to scan organisation: %w", err)
		}
		record.OrgGroup = group.String
		orgs = append(orgs, record)
	}

	return orgs, rows.Err()
}

// GetNextID returns the next available organisation ID.
func (r *OrganisationRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("ORG-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM organisations", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next organisation ID: %w", err)
	}

	return organisation.GenerateOrgID(maxID), nil
}

// GetTypeTags returns the organisation types of an organisation with their tags.
// Types without any tag appear with an empty tag map.
func (r *OrganisationRepository) GetTypeTags(ctx context.Context, organisationID string) (map[string]map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.type_id, t.tag, t.value
		FROM organisation_type_links l
		LEFT JOIN organisation_type_tags t ON t.type_id = l.type_id
		WHERE l.organisation_id = ?`,
		organisationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get organisation types: %w", err)
	}
	defer rows.Close()

	types := make(map[string]map[string]string)
	for rows.Next() {
		var (
			typeID string
			tag    sql.NullString
			value  sql.NullString
		)
		if err := rows.Scan(&typeID, &tag, &value); err != nil {
			return nil, fmt.Errorf("failed to scan organisation type: %w", err)
		}
		if types[typeID] == nil {
			types[typeID] = make(map[string]string)
		}
		if tag.Valid {
			types[typeID][tag.String] = value.String
		}
	}

	return types, rows.Err()
}

// SetTypes replaces the organisation types of an organisation.
func (r *OrganisationRepository) SetTypes(ctx context.Context, organisationID string, typeIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM organisation_type_links WHERE organisation_id = ?", organisationID); err != nil {
		return fmt.Errorf("failed to clear organisation types: %w", err)
	}
	for _, typeID := range typeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO organisation_type_links (organisation_id, type_id) VALUES (?, ?)",
			organisationID, typeID,
		); err != nil {
			return fmt.Errorf("failed to link organisation type %s: %w", typeID, err)
		}
	}

	return tx.Commit()
}

// GetTags returns the tags of an organisation.
func (r *OrganisationRepository) GetTags(ctx context.Context, organisationID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT tag, value FROM organisation_tags WHERE organisation_id = ?",
		organisationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get organisation tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string]string)
	for rows.Next() {
		var (
			tag   string
			value sql.NullString
		)
		if err := rows.Scan(&tag, &value); err != nil {
			return nil, fmt.Errorf("failed to scan organisation tag: %w", err)
		}
		tags[tag] = value.String
	}

	return tags, rows.Err()
}

// AddTag adds a tag to an organisation.
func (r *OrganisationRepository) AddTag(ctx context.Context, organisationID, tag, value string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organisation_tags (organisation_id, tag, value) VALUES (?, ?, ?)",
		organisationID, tag, value,
	)
	if err != nil {
		return fmt.Errorf("failed to add organisation tag: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "organisation", organisationID, tag, "", value)
	}

	return nil
}

// Ensure OrganisationRepository implements the interface
var _ secondary.OrganisationRepository = (*OrganisationRepository)(nil)
