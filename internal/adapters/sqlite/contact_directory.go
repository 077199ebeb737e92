package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nursix/gims/internal/ports/secondary"
)

// ContactDirectory implements secondary.ContactDirectory over the org_admins table.
type ContactDirectory struct {
	db *sql.DB
}

// NewContactDirectory creates a new SQLite contact directory.
func NewContactDirectory(db *sql.DB) *ContactDirectory {
	return &ContactDirectory{db: db}
}

// RoleEmails returns the e-mail addresses of all users holding role for
// the organisation, in a stable order.
func (d *ContactDirectory) RoleEmails(ctx context.Context, role, organisationID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT DISTINCT email FROM org_admins WHERE organisation_id = ? AND role = ? ORDER BY email",
		organisationID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up role e-mails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan e-mail: %w", err)
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

// AddRoleEmail registers an e-mail address for a role of an organisation.
func (d *ContactDirectory) AddRoleEmail(ctx context.Context, role, organisationID, email string) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO org_admins (organisation_id, email, role) VALUES (?, ?, ?)",
		organisationID, email, role,
	)
	if err != nil {
		return fmt.Errorf("failed to add role e-mail: %w", err)
	}
	return nil
}

// Ensure ContactDirectory implements the interface
var _ secondary.ContactDirectory = (*ContactDirectory)(nil)
