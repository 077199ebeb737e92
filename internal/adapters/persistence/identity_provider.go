// Package persistence contains adapters that resolve ambient state (the
// acting user, the current time) for the application services.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/ctxutil"
	"github.com/nursix/gims/internal/ports/secondary"
)

// ErrNoActor is returned when the context carries no acting user.
var ErrNoActor = errors.New("no acting user in context")

// ContextIdentityProvider reads the acting user from the request context.
type ContextIdentityProvider struct{}

// NewContextIdentityProvider creates a new ContextIdentityProvider.
func NewContextIdentityProvider() *ContextIdentityProvider {
	return &ContextIdentityProvider{}
}

// CurrentIdentity returns the identity of the acting user.
func (p *ContextIdentityProvider) CurrentIdentity(ctx context.Context) (*secondary.Identity, error) {
	actor, ok := ctxutil.ActorFromContext(ctx)
	if !ok {
		return nil, ErrNoActor
	}

	role, err := access.ParseRole(actor.Role)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", actor.UserID, err)
	}

	return &secondary.Identity{
		UserID:    actor.UserID,
		Role:      role,
		AuthRoles: actor.AuthRoles,
		Email:     actor.Email,

		OrganisationID: actor.OrganisationID,
	}, nil
}

// Ensure ContextIdentityProvider implements the interface
var _ secondary.IdentityProvider = (*ContextIdentityProvider)(nil)
