package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	corecommission "github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/ports/secondary"
)

// CommissionRepository implements secondary.CommissionRepository with SQLite.
type CommissionRepository struct {
	db        *sql.DB
	logWriter secondary.LogWriter
}

// NewCommissionRepository creates a new SQLite commission repository.
// logWriter is optional - if nil, no audit logging is performed.
func NewCommissionRepository(db *sql.DB, logWriter secondary.LogWriter) *CommissionRepository {
	return &CommissionRepository{db: db, logWriter: logWriter}
}

const commissionColumns = "id, organisation_id, date, end_date, status, prev_status, status_date, status_reason, comments"

// Create persists a new commission.
// The commission record must have ID and Status pre-populated by the service layer.
func (r *CommissionRepository) Create(ctx context.Context, c *secondary.CommissionRecord) error {
	if c.ID == "" {
		return fmt.Errorf("commission ID must be pre-populated by service layer")
	}
	if c.Status == "" {
		return fmt.Errorf("commission Status must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO commissions ("+commissionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.OrganisationID, c.Date.Format(dateLayout), nullDate(c.EndDate),
		string(c.Status), nullString(string(c.PrevStatus)), nullDate(c.StatusDate),
		nullString(string(c.StatusReason)), nullString(c.Comments),
	)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}

	if r.logWriter != nil {
		_ = r.logWriter.LogCreate(ctx, "commission", c.ID)
	}

	return nil
}

// GetByID retrieves a commission by its ID.
func (r *CommissionRepository) GetByID(ctx context.Context, id string) (*secondary.CommissionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+commissionColumns+" FROM commissions WHERE id = ?",
		id,
	)

	record, err := scanCommission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("commission %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	return record, nil
}

// Update updates an existing commission.
func (r *CommissionRepository) Update(ctx context.Context, c *secondary.CommissionRecord) error {
	var before *secondary.CommissionRecord
	if r.logWriter != nil {
		before, _ = r.GetByID(ctx, c.ID)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE commissions SET date = ?, end_date = ?, status = ?, prev_status = ?, status_date = ?,
		status_reason = ?, comments = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.Date.Format(dateLayout), nullDate(c.EndDate), string(c.Status), nullString(string(c.PrevStatus)),
		nullDate(c.StatusDate), nullString(string(c.StatusReason)), nullString(c.Comments), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update commission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("commission %s: %w", c.ID, secondary.ErrNotFound)
	}

	if before != nil {
		if before.Status != c.Status {
			_ = r.logWriter.LogUpdate(ctx, "commission", c.ID, "status", string(before.Status), string(c.Status))
		}
		if before.StatusReason != c.StatusReason {
			_ = r.logWriter.LogUpdate(ctx, "commission", c.ID, "status_reason", string(before.StatusReason), string(c.StatusReason))
		}
	}

	return nil
}

// List retrieves commissions matching the given filters, newest first.
func (r *CommissionRepository) List(ctx context.Context, filters secondary.CommissionFilters) ([]*secondary.CommissionRecord, error) {
	query := "SELECT " + commissionColumns + " FROM commissions WHERE 1=1"
	args := []any{}

	if filters.OrganisationID != "" {
		query += " AND organisation_id = ?"
		args = append(args, filters.OrganisationID)
	}

	if len(filters.Statuses) > 0 {
		placeholders := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if filters.EndBefore != nil {
		query += " AND end_date IS NOT NULL AND end_date < ?"
		args = append(args, filters.EndBefore.Format(dateLayout))
	}

	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	defer rows.Close()

	var commissions []*secondary.CommissionRecord
	for rows.Next() {
		record, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		commissions = append(commissions, record)
	}

	return commissions, rows.Err()
}

// GetNextID returns the next available commission ID.
func (r *CommissionRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("COMM-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM commissions", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next commission ID: %w", err)
	}

	return corecommission.GenerateCommissionID(maxID), nil
}

// SuspendCurrent sets all CURRENT commissions of an organisation to SUSPENDED.
func (r *CommissionRepository) SuspendCurrent(ctx context.Context, organisationID string, reason corecommission.Reason, day time.Time) (int, error) {
	return r.bulkStatus(ctx,
		" WHERE organisation_id = ? AND status = ?",
		[]any{organisationID, string(corecommission.StatusCurrent)},
		corecommission.StatusCurrent, corecommission.StatusSuspended, reason, day,
	)
}

// ReinstateSuspended sets all commissions SUSPENDED for reason back to CURRENT.
func (r *CommissionRepository) ReinstateSuspended(ctx context.Context, organisationID string, reason corecommission.Reason, day time.Time) (int, error) {
	return r.bulkStatus(ctx,
		" WHERE organisation_id = ? AND status = ? AND status_reason IS ?",
		[]any{organisationID, string(corecommission.StatusSuspended), nullString(string(reason))},
		corecommission.StatusSuspended, corecommission.StatusCurrent, corecommission.ReasonNone, day,
	)
}

// bulkStatus moves the commissions selected by where from status from to
// status to. prev_status follows the new status so the accept hook sees
// no pending transition.
func (r *CommissionRepository) bulkStatus(ctx context.Context, where string, args []any,
	from, to corecommission.Status, toReason corecommission.Reason, day time.Time,
) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM commissions"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to select commissions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan commission: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if len(ids) == 0 {
		return 0, nil
	}

	update := "UPDATE commissions SET status = ?, prev_status = ?, status_reason = ?, status_date = ?, updated_at = CURRENT_TIMESTAMP" + where
	updateArgs := append([]any{string(to), string(to), nullString(string(toReason)), day.Format(dateLayout)}, args...)
	if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
		return 0, fmt.Errorf("failed to update commission status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit commission status: %w", err)
	}

	if r.logWriter != nil {
		for _, id := range ids {
			_ = r.logWriter.LogUpdate(ctx, "commission", id, "status", string(from), string(to))
		}
	}

	return len(ids), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommission(row rowScanner) (*secondary.CommissionRecord, error) {
	var (
		date         time.Time
		endDate      sql.NullTime
		status       string
		prevStatus   sql.NullString
		statusDate   sql.NullTime
		statusReason sql.NullString
		comments     sql.NullString
	)

	record := &secondary.CommissionRecord{}
	err := row.Scan(&record.ID, &record.OrganisationID, &date, &endDate, &status,
		&prevStatus, &statusDate, &statusReason, &comments)
	if err != nil {
		return nil, err
	}

	record.Date = date.UTC()
	record.EndDate = datePtr(endDate)
	record.Status = corecommission.Status(status)
	record.PrevStatus = corecommission.Status(prevStatus.String)
	record.StatusDate = datePtr(statusDate)
	record.StatusReason = corecommission.Reason(statusReason.String)
	record.Comments = comments.String
	return record, nil
}

// Ensure CommissionRepository implements the interface
var _ secondary.CommissionRepository = (*CommissionRepository)(nil)
