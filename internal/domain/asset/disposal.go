package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Dispose runs the disposal transition for the method and records its metadata.
// A mounted tire must be removed first; a tire at the retreader is decided by the retread receipt.
func (t *Tire) Dispose(method DisposalMethod, reason string, authorizer uuid.UUID, at time.Time) (TireStatus, TireStatus, error) {
	if !method.IsValid() {
		return t.Status, t.Status, shared.NewValidationError(shared.CodeInvalidInput, "unknown disposal method "+string(method))
	}
	if strings.TrimSpace(reason) == "" {
		return t.Status, t.Status, shared.NewValidationError(shared.CodeInvalidInput, "disposal reason cannot be empty")
	}
	from, to, err := t.Apply(method.Trigger(), at)
	if err != nil {
		return from, to, err
	}
	t.Disposal = &Disposal{
		Method:       method,
		Reason:       strings.TrimSpace(reason),
		AuthorizedBy: authorizer,
		DisposedAt:   at,
	}
	return from, to, nil
}

// ReverseDisposal returns a DISPOSED tire to used stock. The disposal stays visible in
// the movement history; the tire's disposal metadata is cleared.
func (t *Tire) ReverseDisposal(reason string, at time.Time) (TireStatus, TireStatus, error) {
	if strings.TrimSpace(reason) == "" {
		return t.Status, t.Status, shared.NewValidationError(shared.CodeInvalidInput, "reversal reason cannot be empty")
	}
	from, to, err := t.Apply(TriggerDisposalReversal, at)
	if err != nil {
		return from, to, err
	}
	t.Disposal = nil
	return from, to, nil
}
