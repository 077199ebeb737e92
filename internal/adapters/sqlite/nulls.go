package sqlite

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullDate binds a calendar day as YYYY-MM-DD so that string comparison
// in SQL matches date order.
func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func datePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	d := t.Time.UTC()
	return &d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
