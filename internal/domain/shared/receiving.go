package shared

// ReceivingProgress is the receipt state of an order derived from its lines
type ReceivingProgress int

const (
	// ReceivingNone means nothing has been received; the header status is left alone
	ReceivingNone ReceivingProgress = iota
	// ReceivingPartial means 0 < received < ordered
	ReceivingPartial
	// ReceivingFull means received >= ordered
	ReceivingFull
)

// DeriveReceivingProgress maps ordered total T and received total R to progress.
func DeriveReceivingProgress(ordered, received int) ReceivingProgress {
	switch {
	case received <= 0:
		return ReceivingNone
	case received < ordered:
		return ReceivingPartial
	default:
		return ReceivingFull
	}
}
