package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nursix/gims/internal/ports/secondary"
)

// StaffRepository implements secondary.StaffRepository with SQLite.
type StaffRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewStaffRepository creates a new SQLite staff repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewStaffRepository(db *sql.DB, logWriter secondary.LogWriter) *StaffRepository {
	return &StaffRepository{db: db, logWriter: logWriter}
}

const managerQuery = `
	SELECT s.id, s.person_id, s.organisation_id, p.first_name, p.last_name, p.date_of_birth,
		EXISTS(SELECT 1 FROM person_contacts c WHERE c.person_id = p.id AND c.contact_method IN ('SMS', 'HOME_PHONE', 'WORK_PHONE', 'EMAIL'))
	FROM staff s
	JOIN persons p ON p.id = s.person_id`

// ListManagers returns the active organisational contacts of an organisation.
func (r *StaffRepository) ListManagers(ctx context.Context, organisationID string) ([]*secondary.ManagerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		managerQuery+" WHERE s.organisation_id = ? AND s.org_contact = 1 AND s.status = 1 ORDER BY s.id",
		organisationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}

	var managers []*secondary.ManagerRecord
	for rows.Next() {
		mgr, err := scanManager(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		managers = append(managers, mgr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, mgr := range managers {
		if mgr.Tags, err = r.tags(ctx, mgr.StaffID); err != nil {
			return nil, err
		}
	}

	return managers, nil
}

// GetManager retrieves a single manager by staff ID.
func (r *StaffRepository) GetManager(ctx context.Context, staffID string) (*secondary.ManagerRecord, error) {
	mgr, err := scanManager(r.db.QueryRowContext(ctx, managerQuery+" WHERE s.id = ?", staffID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("staff %s: %w", staffID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manager: %w", err)
	}

	if mgr.Tags, err = r.tags(ctx, staffID); err != nil {
		return nil, err
	}
	return mgr, nil
}

// SetTags inserts or updates staff tags.
func (r *StaffRepository) SetTags(ctx context.Context, staffID string, tags map[string]string) error {
	var before map[string]string
	if r.logWriter != nil {
		before, _ = r.tags(ctx, staffID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for tag, value := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO staff_tags (staff_id, tag, value) VALUES (?, ?, ?)
			ON CONFLICT(staff_id, tag) DO UPDATE SET value = excluded.value`,
			staffID, tag, value,
		)
		if err != nil {
			return fmt.Errorf("failed to set staff tag %s: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staff tags: %w", err)
	}

	if r.logWriter != nil {
		for tag, value := range tags {
			if before[tag] != value {
				_ = r.logWriter.LogUpdate(ctx, "staff", staffID, tag, before[tag], value)
			}
		}
	}

	return nil
}

// DeleteTag removes a staff tag.
func (r *StaffRepository) DeleteTag(ctx context.Context, staffID, tag string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM staff_tags WHERE staff_id = ? AND tag = ?", staffID, tag)
	if err != nil {
		return fmt.Errorf("failed to delete staff tag: %w", err)
	}
	return nil
}

// UpdatePerson updates the person data of a staff member.
func (r *StaffRepository) UpdatePerson(ctx context.Context, staffID string, person secondary.PersonData) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE persons SET first_name = ?, last_name = ?, date_of_birth = ?
		WHERE id = (SELECT person_id FROM staff WHERE id = ?)`,
		person.FirstName, nullString(person.LastName), nullString(person.DateOfBirth), staffID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("staff %s: %w", staffID, secondary.ErrNotFound)
	}

	return nil
}

func (r *StaffRepository) tags(ctx context.Context, staffID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT tag, value FROM staff_tags WHERE staff_id = ?", staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string]string)
	for rows.Next() {
		var (
			tag   string
			value sql.NullString
		)
		if err := rows.Scan(&tag, &value); err != nil {
			return nil, fmt.Errorf("failed to scan staff tag: %w", err)
		}
		tags[tag] = value.String
	}

	return tags, rows.Err()
}

func scanManager(row rowScanner) (*secondary.ManagerRecord, error) {
	var (
		lastName sql.NullString
		dob      sql.NullTime
	)

	mgr := &secondary.ManagerRecord{}
	err := row.Scan(&mgr.StaffID, &mgr.PersonID, &mgr.OrganisationID, &mgr.FirstName, &lastName, &dob, &mgr.HasContact)
	if err != nil {
		return nil, err
	}

	mgr.LastName = lastName.String
	if dob.Valid {
		mgr.DateOfBirth = dob.Time.Format(dateLayout)
	}
	return mgr, nil
}

// Ensure StaffRepository implements the interface
var _ secondary.StaffRepository = (*StaffRepository)(nil)
