package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Capability is a "resource:action" grant held by an actor
type Capability string

const (
	CapApprovePurchaseOrder Capability = "purchase_order:approve"
	CapApproveRetreadOrder  Capability = "retread_order:approve"
	CapDisposeTire          Capability = "tire:dispose"
	CapReverseDisposal      Capability = "tire:reverse_disposal"
	CapPaySupplier          Capability = "supplier:pay"
	CapManageSupplier       Capability = "supplier:manage"
	CapReconcileStock       Capability = "stock:reconcile"
	CapPostReceipt          Capability = "finance:post"
)

// AllCapabilities lists every capability the engine checks
func AllCapabilities() []Capability {
	return []Capability{
		CapApprovePurchaseOrder,
		CapApproveRetreadOrder,
		CapDisposeTire,
		CapReverseDisposal,
		CapPaySupplier,
		CapManageSupplier,
		CapReconcileStock,
		CapPostReceipt,
	}
}

// IsValid reports whether the capability is one the engine knows about
func (c Capability) IsValid() bool {
	for _, known := range AllCapabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCapabilities splits a comma separated capability list, skipping unknown codes
func ParseCapabilities(raw string) []Capability {
	caps := make([]Capability, 0)
	for _, part := range strings.Split(raw, ",") {
		c := Capability(strings.ToLower(strings.TrimSpace(part)))
		if c.IsValid() {
			caps = append(caps, c)
		}
	}
	return caps
}

// JoinCapabilities is the inverse of ParseCapabilities
func JoinCapabilities(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// Actor is a resolved caller: an id plus the capabilities it holds.
// User and role administration live outside this service; the engine only reads actors.
type Actor struct {
	ID           uuid.UUID
	Name         string
	Active       bool
	Capabilities []Capability
}

// Has reports whether the actor holds the capability
func (a *Actor) Has(c Capability) bool {
	if a == nil || !a.Active {
		return false
	}
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// Require returns an AuthorizationError unless the actor holds the capability
func (a *Actor) Require(c Capability) error {
	if a.Has(c) {
		return nil
	}
	id := ""
	if a != nil {
		id = a.ID.String()
	}
	return shared.NewAuthorizationError(id, string(c), "actor lacks capability "+string(c))
}

// ActorResolver maps a caller id to an Actor
type ActorResolver interface {
	// Resolve returns the actor or a NOT_FOUND domain error
	Resolve(ctx context.Context, actorID uuid.UUID) (*Actor, error)
}

// ActorRepository is the persistence side of actor resolution
type ActorRepository interface {
	ActorResolver
	Save(ctx context.Context, actor *Actor) error
}
