package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nursix/gims/internal/core/organisation"
	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/secondary"
)

// SiteRepository implements secondary.SiteRepository with SQLite.
type SiteRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewSiteRepository creates a new SQLite site repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewSiteRepository(db *sql.DB, logWriter secondary.LogWriter) *SiteRepository {
	return &SiteRepository{db: db, logWriter: logWriter}
}

const siteQuery = `
	SELECT f.id, f.organisation_id, f.name, f.uuid, f.code, l.id, l.parent, l.street, l.postcode
	FROM facilities f
	LEFT JOIN locations l ON l.id = f.location_id`

// Create persists a new site, including its location if set.
func (r *SiteRepository) Create(ctx context.Context, site *secondary.SiteRecord) error {
	if site.ID == "" {
		return fmt.Errorf("site ID must be pre-populated by service layer")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locationID sql.NullString
	if site.Location != nil {
		if site.Location.ID == "" {
			site.Location.ID = locationIDFor(site.ID)
		}
		if err := upsertLocation(ctx, tx, *site.Location); err != nil {
			return err
		}
		locationID = nullString(site.Location.ID)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO facilities (id, organisation_id, name, uuid, code, location_id) VALUES (?, ?, ?, ?, ?, ?)",
		site.ID, site.OrganisationID, site.Name, site.UUID, nullString(site.Code), locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit site: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "site", site.ID)
	}

	return nil
}

// GetByID retrieves a site by its ID.
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*secondary.SiteRecord, error) {
	site, err := scanSite(r.db.QueryRowContext(ctx, siteQuery+" WHERE f.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("site %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// List retrieves sites matching the given filters.
func (r *SiteRepository) List(ctx context.Context, filters secondary.SiteFilters) ([]*secondary.SiteRecord, error) {
	query := siteQuery + " WHERE 1=1"
	args := []any{}

	if filters.OrganisationID != "" {
		query += " AND f.organisation_id = ?"
		args = append(args, filters.OrganisationID)
	}

	query += " ORDER BY f.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*secondary.SiteRecord
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetNextID returns the next available site ID.
func (r *SiteRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("SITE-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM facilities", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next site ID: %w", err)
	}

	return organisation.GenerateSiteID(maxID), nil
}

// SetCode sets the facility code of a site.
func (r *SiteRepository) SetCode(ctx context.Context, siteID, code string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE facilities SET code = ? WHERE id = ?", nullString(code), siteID)
	if err != nil {
		return fmt.Errorf("failed to set site code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("site %s: %w", siteID, secondary.ErrNotFound)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "site", siteID, "code", "", code)
	}

	return nil
}

// UpdateLocation updates the address of a site. A site without location
// gets a new location record.
func (r *SiteRepository) UpdateLocation(ctx context.Context, siteID string, loc siteapproval.Location) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT location_id FROM facilities WHERE id = ?", siteID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("site %s: %w", siteID, secondary.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get site location: %w", err)
	}

	switch {
	case current.Valid:
		loc.ID = current.String
	case loc.ID == "":
		loc.ID = locationIDFor(siteID)
	}

	if err := upsertLocation(ctx, tx, loc); err != nil {
		return err
	}
	if !current.Valid {
		if _, err := tx.ExecContext(ctx, "UPDATE facilities SET location_id = ? WHERE id = ?", loc.ID, siteID); err != nil {
			return fmt.Errorf("failed to link site location: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit site location: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogUpdate(ctx, "site", siteID, "location", "", siteapproval.LocationHash(&loc))
	}

	return nil
}

func upsertLocation(ctx context.Context, tx *sql.Tx, loc siteapproval.Location) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO locations (id, parent, street, postcode) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET parent = excluded.parent, street = excluded.street, postcode = excluded.postcode`,
		loc.ID, nullString(loc.Parent), nullString(loc.Street), nullString(loc.Postcode),
	)
	if err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

func locationIDFor(siteID string) string {
	return "LOC-" + siteID
}

func scanSite(row rowScanner) (*secondary.SiteRecord, error) {
	var (
		code       sql.NullString
		locationID sql.NullString
		parent     sql.NullString
		street     sql.NullString
		postcode   sql.NullString
	)

	site := &secondary.SiteRecord{}
	err := row.Scan(&site.ID, &site.OrganisationID, &site.Name, &site.UUID, &code,
		&locationID, &parent, &street, &postcode)
	if err != nil {
		return nil, err
	}

	site.Code = code.String
	if locationID.Valid {
		site.Location = &siteapproval.Location{
			ID:       locationID.String,
			Parent:   parent.String,
			Street:   street.String,
			Postcode: postcode.String,
		}
	}
	return site, nil
}

// Ensure SiteRepository implements the interface
var _ secondary.SiteRepository = (*SiteRepository)(nil)
