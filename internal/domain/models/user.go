package models

import (
	"context"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

// Principal is the verified identity attached to a request or connection.
// It is produced by the external identity collaborator; this system only
// validates the signed credential.
type Principal struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   types.UserRole `json:"role"`

	// DriverID is set only when Role is RoleDriver. For drivers it equals
	// UserID in the current identity scheme but is kept separate so the
	// coupling stays explicit.
	DriverID *uuid.UUID `json:"driver_id,omitempty"`
}

func (p *Principal) IsAnonymous() bool {
	return p == nil || p.UserID == uuid.Nil
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == types.RoleAdmin
}

// AnonymousPrincipal represents an unauthenticated party.
func AnonymousPrincipal() *Principal {
	return &Principal{}
}

type principalCtxKey struct{}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored in the context, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*Principal)
	return p
}
