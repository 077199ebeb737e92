package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nursix/gims/internal/core/verification"
	"github.com/nursix/gims/internal/ports/secondary"
)

// VerificationRepository implements secondary.VerificationRepository with SQLite.
type VerificationRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewVerificationRepository creates a new SQLite verification repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewVerificationRepository(db *sql.DB, logWriter secondary.LogWriter) *VerificationRepository {
	return &VerificationRepository{db: db, logWriter: logWriter}
}

// Get retrieves the verification of an organisation.
func (r *VerificationRepository) Get(ctx context.Context, organisationID string) (*secondary.VerificationRecord, error) {
	var (
		dhash     sql.NullString
		orgtype   string
		mgrinfo   string
		accepted  bool
		updatedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT dhash, orgtype, mgrinfo, accepted, updated_at FROM verifications WHERE organisation_id = ?",
		organisationID,
	).Scan(&dhash, &orgtype, &mgrinfo, &accepted, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("verification of %s: %w", organisationID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	record := &secondary.VerificationRecord{
		OrganisationID: organisationID,
		DHash:          dhash.String,
		OrgType:        verification.OrgTypeStatus(orgtype),
		MgrInfo:        verification.MgrInfoStatus(mgrinfo),
		Accepted:       accepted,
	}
	if updatedAt.Valid {
		record.UpdatedAt = updatedAt.Time.UTC()
	}
	return record, nil
}

// Create persists a new verification.
func (r *VerificationRepository) Create(ctx context.Context, v *secondary.VerificationRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO verifications (organisation_id, dhash, orgtype, mgrinfo, accepted, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		v.OrganisationID, nullString(v.DHash), string(v.OrgType), string(v.MgrInfo), boolInt(v.Accepted), updatedAt(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "verification", v.OrganisationID)
	}

	return nil
}

// Update updates an existing verification.
func (r *VerificationRepository) Update(ctx context.Context, v *secondary.VerificationRecord) error {
	var before *secondary.VerificationRecord
	if r.logWriter != nil {
		before, _ = r.Get(ctx, v.OrganisationID)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE verifications SET dhash = ?, orgtype = ?, mgrinfo = ?, accepted = ?, updated_at = ? WHERE organisation_id = ?",
		nullString(v.DHash), string(v.OrgType), string(v.MgrInfo), boolInt(v.Accepted), updatedAt(v.UpdatedAt), v.OrganisationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("verification of %s: %w", v.OrganisationID, secondary.ErrNotFound)
	}

	if before != nil {
		if before.OrgType != v.OrgType {
			_ = r.logWriter.LogUpdate(ctx, "verification", v.OrganisationID, "orgtype", string(before.OrgType), string(v.OrgType))
		}
		if before.MgrInfo != v.MgrInfo {
			_ = r.logWriter.LogUpdate(ctx, "verification", v.OrganisationID, "mgrinfo", string(before.MgrInfo), string(v.MgrInfo))
		}
		if before.Accepted != v.Accepted {
			_ = r.logWriter.LogUpdate(ctx, "verification", v.OrganisationID, "accepted",
				strconv.FormatBool(before.Accepted), strconv.FormatBool(v.Accepted))
		}
	}

	return nil
}

func updatedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// Ensure VerificationRepository implements the interface
var _ secondary.VerificationRepository = (*VerificationRepository)(nil)
