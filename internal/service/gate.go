package service

import (
	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// Role is a caller's standing relative to one event.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleAttendee Role = "ATTENDEE"
)

// IdentityGate classifies callers. The admin identity is fixed at construction.
type IdentityGate struct {
	admin domain.Identity
}

// NewIdentityGate creates a gate. An anonymous admin disables admin rights.
func NewIdentityGate(admin domain.Identity) *IdentityGate {
	return &IdentityGate{admin: admin}
}

// Admin returns the configured store admin, empty if none.
func (g *IdentityGate) Admin() domain.Identity {
	return g.admin
}

// IsOwner reports whether identity owns event.
func (g *IdentityGate) IsOwner(identity domain.Identity, event *domain.Event) bool {
	return !identity.IsAnonymous() && event.Owner == identity
}

// IsStoreAdmin reports whether identity is the configured store admin.
func (g *IdentityGate) IsStoreAdmin(identity domain.Identity) bool {
	return !g.admin.IsAnonymous() && identity == g.admin
}

// Classify returns the caller's role for event. Admin wins over owner.
func (g *IdentityGate) Classify(identity domain.Identity, event *domain.Event) Role {
	switch {
	case g.IsStoreAdmin(identity):
		return RoleAdmin
	case g.IsOwner(identity, event):
		return RoleOwner
	default:
		return RoleAttendee
	}
}

// AuthorizeManage allows the owner or the store admin to change event.
func (g *IdentityGate) AuthorizeManage(identity domain.Identity, event *domain.Event) error {
	if g.Classify(identity, event) == RoleAttendee {
		return apperrors.ErrNotEventOwnerf(event.ID)
	}
	return nil
}

// AuthorizeClaim rejects callers that may not hold a seat.
func (g *IdentityGate) AuthorizeClaim(identity domain.Identity) error {
	if identity.IsAnonymous() {
		return apperrors.Forbidden(apperrors.CodeIdentityMissing, "an authenticated identity is required")
	}
	if g.IsStoreAdmin(identity) {
		return apperrors.Forbidden(apperrors.CodeAdminCannotSeat, "the store admin cannot claim seats")
	}
	return nil
}
