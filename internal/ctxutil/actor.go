// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting user.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	UserID    string
	Role      string   // workflow role: applicant or approver
	AuthRoles []string // system roles, e.g. ORG_GROUP_ADMIN
	Email     string

	// OrganisationID is the organisation the user belongs to, if any.
	OrganisationID string
}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the actor from context, and whether one was set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey{}).(Actor)
	return actor, ok
}

// ActorID returns the ID of the acting user, or empty string if not set.
func ActorID(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.UserID
}
