package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nursix/gims/internal/core/siteapproval"
	"github.com/nursix/gims/internal/ports/secondary"
)

// SiteApprovalRepository implements secondary.SiteApprovalRepository with SQLite.
type SiteApprovalRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewSiteApprovalRepository creates a new SQLite site approval repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewSiteApprovalRepository(db *sql.DB, logWriter secondary.LogWriter) *SiteApprovalRepository {
	return &SiteApprovalRepository{db: db, logWriter: logWriter}
}

// Get retrieves the approval of a site.
func (r *SiteApprovalRepository) Get(ctx context.Context, siteID string) (*secondary.SiteApprovalRecord, error) {
	var (
		organisationID string
		a              siteapproval.Approval
		reason         sql.NullString
		advice         sql.NullString
		dhash          sql.NullString
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT organisation_id, status, mpav, hygiene, layout, public, public_reason, advice, dhash
		FROM site_approvals WHERE site_id = ?`,
		siteID,
	).Scan(&organisationID, &a.Status, &a.MPAV, &a.Hygiene, &a.Layout, &a.Public, &reason, &advice, &dhash)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("approval of %s: %w", siteID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site approval: %w", err)
	}

	a.PublicReason = siteapproval.PublicReason(reason.String)
	a.Advice = advice.String
	a.DHash = dhash.String

	return &secondary.SiteApprovalRecord{SiteID: siteID, OrganisationID: organisationID, Approval: a}, nil
}

// Create persists a new approval.
func (r *SiteApprovalRepository) Create(ctx context.Context, rec *secondary.SiteApprovalRecord) error {
	a := rec.Approval
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_approvals (site_id, organisation_id, status, mpav, hygiene, layout, public, public_reason, advice, dhash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SiteID, rec.OrganisationID, string(a.Status), string(a.MPAV), string(a.Hygiene), string(a.Layout),
		string(a.Public), nullString(string(a.PublicReason)), nullString(a.Advice), nullString(a.DHash),
	)
	if err != nil {
		return fmt.Errorf("failed to create site approval: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "site_approval", rec.SiteID)
	}

	return nil
}

// Update updates an existing approval.
func (r *SiteApprovalRepository) Update(ctx context.Context, rec *secondary.SiteApprovalRecord) error {
	var before *secondary.SiteApprovalRecord
	if r.logWriter != nil {
		before, _ = r.Get(ctx, rec.SiteID)
	}

	a := rec.Approval
	result, err := r.db.ExecContext(ctx,
		`UPDATE site_approvals SET organisation_id = ?, status = ?, mpav = ?, hygiene = ?, layout = ?,
		public = ?, public_reason = ?, advice = ?, dhash = ?, updated_at = CURRENT_TIMESTAMP WHERE site_id = ?`,
		rec.OrganisationID, string(a.Status), string(a.MPAV), string(a.Hygiene), string(a.Layout),
		string(a.Public), nullString(string(a.PublicReason)), nullString(a.Advice), nullString(a.DHash), rec.SiteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update site approval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("approval of %s: %w", rec.SiteID, secondary.ErrNotFound)
	}

	if before != nil {
		if before.Approval.Status != a.Status {
			_ = r.logWriter.LogUpdate(ctx, "site_approval", rec.SiteID, "status", string(before.Approval.Status), string(a.Status))
		}
		if before.Approval.Public != a.Public {
			_ = r.logWriter.LogUpdate(ctx, "site_approval", rec.SiteID, "public", string(before.Approval.Public), string(a.Public))
		}
	}

	return nil
}

// SetVisibility changes the listing of all eligible approvals of an
// organisation. The affected sites are selected and updated inside one
// transaction, so the returned IDs match the rows changed.
func (r *SiteApprovalRepository) SetVisibility(ctx context.Context, organisationID string, public siteapproval.Public, reasons []siteapproval.PublicReason) ([]string, error) {
	var (
		where  string
		args   []any
		reason sql.NullString
	)

	switch public {
	case siteapproval.PublicYes:
		var named []string
		for _, pr := range reasons {
			if pr != siteapproval.ReasonNone {
				named = append(named, string(pr))
			}
		}
		if len(named) == 0 {
			return nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(named)), ", ")
		where = ` WHERE organisation_id = ? AND public = 'N'
			AND status = 'APPROVED' AND mpav = 'APPROVED' AND hygiene = 'APPROVED' AND layout = 'APPROVED'
			AND public_reason IN (` + placeholders + `)`
		args = append(args, organisationID)
		for _, n := range named {
			args = append(args, n)
		}
	case siteapproval.PublicNo:
		if len(reasons) == 0 {
			return nil, fmt.Errorf("a reason is required to unlist sites")
		}
		where = " WHERE organisation_id = ? AND public = 'Y'"
		args = append(args, organisationID)
		reason = nullString(string(reasons[0]))
	default:
		return nil, fmt.Errorf("invalid visibility %q", public)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT site_id FROM site_approvals"+where+" ORDER BY site_id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select site approvals: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan site approval: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}

	update := "UPDATE site_approvals SET public = ?, public_reason = ?, updated_at = CURRENT_TIMESTAMP" + where
	if _, err := tx.ExecContext(ctx, update, append([]any{string(public), reason}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to update site visibility: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit site visibility: %w", err)
	}

	if r.logWriter != nil {
		old := siteapproval.PublicNo
		if public == siteapproval.PublicNo {
			old = siteapproval.PublicYes
		}
		for _, id := range ids {
			_ = r.logWriter.LogUpdate(ctx, "site_approval", id, "public", string(old), string(public))
		}
	}

	return ids, nil
}

const historyColumns = "id, site_id, timestamp, status, mpav, hygiene, layout, public, public_reason, advice"

// LastHistory returns the most recent history entry of a site.
func (r *SiteApprovalRepository) LastHistory(ctx context.Context, siteID string) (*secondary.HistoryRecord, error) {
	h, err := scanHistory(r.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM site_approval_status WHERE site_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1",
		siteID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history of %s: %w", siteID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval history: %w", err)
	}
	return h, nil
}

// AppendHistory adds a history entry.
func (r *SiteApprovalRepository) AppendHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	a := h.Approval
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO site_approval_status (site_id, timestamp, status, mpav, hygiene, layout, public, public_reason, advice)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.SiteID, h.Timestamp.UTC(), string(a.Status), string(a.MPAV), string(a.Hygiene), string(a.Layout),
		string(a.Public), nullString(string(a.PublicReason)), nullString(a.Advice),
	)
	if err != nil {
		return fmt.Errorf("failed to append approval history: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		h.ID = id
	}
	return nil
}

// ReplaceHistory overwrites an existing history entry.
func (r *SiteApprovalRepository) ReplaceHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	a := h.Approval
	result, err := r.db.ExecContext(ctx,
		`UPDATE site_approval_status SET timestamp = ?, status = ?, mpav = ?, hygiene = ?, layout = ?,
		public = ?, public_reason = ?, advice = ? WHERE id = ?`,
		h.Timestamp.UTC(), string(a.Status), string(a.MPAV), string(a.Hygiene), string(a.Layout),
		string(a.Public), nullString(string(a.PublicReason)), nullString(a.Advice), h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace approval history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("history entry %d: %w", h.ID, secondary.ErrNotFound)
	}
	return nil
}

// ListHistory returns the history of a site, newest first.
func (r *SiteApprovalRepository) ListHistory(ctx context.Context, siteID string) ([]*secondary.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM site_approval_status WHERE site_id = ? ORDER BY timestamp DESC, id DESC",
		siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	var history []*secondary.HistoryRecord
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

// ListPublic returns all listed test stations with organisation and address.
func (r *SiteApprovalRepository) ListPublic(ctx context.Context) ([]secondary.RegistryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.site_id, f.code, f.name, a.organisation_id, o.name, l.street, l.postcode, l.parent
		FROM site_approvals a
		JOIN facilities f ON f.id = a.site_id
		JOIN organisations o ON o.id = a.organisation_id
		LEFT JOIN locations l ON l.id = f.location_id
		WHERE a.public = 'Y'
		ORDER BY a.site_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list public sites: %w", err)
	}
	defer rows.Close()

	var entries []secondary.RegistryEntry
	for rows.Next() {
		var (
			e                        secondary.RegistryEntry
			code, street, post, city sql.NullString
		)
		if err := rows.Scan(&e.SiteID, &code, &e.Name, &e.OrganisationID, &e.OrganisationName, &street, &post, &city); err != nil {
			return nil, fmt.Errorf("failed to scan public site: %w", err)
		}
		e.Code = code.String
		e.Street = street.String
		e.Postcode = post.String
		e.Place = city.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func scanHistory(row rowScanner) (*secondary.HistoryRecord, error) {
	var (
		timestamp time.Time
		reason    sql.NullString
		advice    sql.NullString
	)

	h := &secondary.HistoryRecord{}
	a := &h.Approval
	err := row.Scan(&h.ID, &h.SiteID, &timestamp, &a.Status, &a.MPAV, &a.Hygiene, &a.Layout, &a.Public, &reason, &advice)
	if err != nil {
		return nil, err
	}

	h.Timestamp = timestamp.UTC()
	a.PublicReason = siteapproval.PublicReason(reason.String)
	a.Advice = advice.String
	return h, nil
}

// Ensure SiteApprovalRepository implements the interface
var _ secondary.SiteApprovalRepository = (*SiteApprovalRepository)(nil)
