package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nursix/gims/internal/ports/secondary"
)

// RequirementTexts implements secondary.RequirementTexts over the cms_posts table.
type RequirementTexts struct {
	db *sql.DB
}

// NewRequirementTexts creates a new SQLite requirement text source.
func NewRequirementTexts(db *sql.DB) *RequirementTexts {
	return &RequirementTexts{db: db}
}

// PostBody returns the body of a named CMS post.
func (r *RequirementTexts) PostBody(ctx context.Context, name string) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx, "SELECT body FROM cms_posts WHERE name = ?", name).Scan(&body)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("post %s: %w", name, secondary.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get post: %w", err)
	}
	return body, nil
}

// SetPostBody creates or replaces a CMS post.
func (r *RequirementTexts) SetPostBody(ctx context.Context, name, body string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO cms_posts (name, body) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET body = excluded.body",
		name, body,
	)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

// Ensure RequirementTexts implements the interface
var _ secondary.RequirementTexts = (*RequirementTexts)(nil)
