package secondary

import (
	"context"
	"time"

	"github.com/nursix/gims/internal/core/access"
)

// IdentityProvider defines the secondary port for the authorization context.
// This abstracts how the acting user is determined (HTTP token, CLI flags).
type IdentityProvider interface {
	// CurrentIdentity returns the identity of the acting user.
	CurrentIdentity(ctx context.Context) (*Identity, error)
}

// Identity is the acting user as provided by the secondary port.
type Identity struct {
	UserID    string
	Role      access.Role // workflow role
	AuthRoles []string
	Email     string

	// OrganisationID is the organisation the user belongs to, empty for
	// users not attached to a provider.
	OrganisationID string
}

// Privileged reports whether the identity may change approved details
// without resetting the approval.
func (i *Identity) Privileged() bool {
	return i != nil && access.IsPrivileged(i.AuthRoles)
}

// Notifier delivers notifications to an external channel.
type Notifier interface {
	// Send delivers a notification. Errors are not retried.
	Send(ctx context.Context, n Notification) error
}

// Notification is a templated message to a set of recipients.
type Notification struct {
	ID         string            `json:"id"`
	Template   string            `json:"template"`
	Recipients []string          `json:"recipients"`
	CC         []string          `json:"cc,omitempty"`
	Module     string            `json:"module"`
	Resource   string            `json:"resource"`
	Data       map[string]string `json:"data"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RegistryCache caches the public registry listing.
type RegistryCache interface {
	// Get returns the cached listing, and false on a cache miss.
	Get(ctx context.Context) ([]RegistryEntry, bool, error)

	// Set stores the listing.
	Set(ctx context.Context, entries []RegistryEntry) error

	// Invalidate drops the cached listing.
	Invalidate(ctx context.Context) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}
