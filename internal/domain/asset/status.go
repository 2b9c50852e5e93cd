package asset

// TireStatus is the lifecycle state of a tire
type TireStatus string

const (
	StatusInStore           TireStatus = "IN_STORE"
	StatusOnVehicle         TireStatus = "ON_VEHICLE"
	StatusAwaitingRetread   TireStatus = "AWAITING_RETREAD"
	StatusAtRetreadSupplier TireStatus = "AT_RETREAD_SUPPLIER"
	StatusUsedStore         TireStatus = "USED_STORE"
	StatusDisposed          TireStatus = "DISPOSED"
	StatusScrap             TireStatus = "SCRAP"
)

// AllStatuses returns every tire status
func AllStatuses() []TireStatus {
	return []TireStatus{
		StatusInStore,
		StatusOnVehicle,
		StatusAwaitingRetread,
		StatusAtRetreadSupplier,
		StatusUsedStore,
		StatusDisposed,
		StatusScrap,
	}
}

// IsValid checks if the status is a known value
func (s TireStatus) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation
func (s TireStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no ordinary transition leaves the status
func (s TireStatus) IsTerminal() bool {
	return s == StatusDisposed || s == StatusScrap
}

// IsInStock reports whether tires in this status are counted by the stock aggregator
func (s TireStatus) IsInStock() bool {
	return s == StatusInStore || s == StatusUsedStore
}

// StockDelta is the change in stock count when a tire moves from one status to another.
// An empty from status means the tire is being created.
func StockDelta(from, to TireStatus) int64 {
	var delta int64
	if from.IsInStock() {
		delta--
	}
	if to.IsInStock() {
		delta++
	}
	return delta
}

// TireKind distinguishes new tires from retreaded ones
type TireKind string

const (
	KindNew       TireKind = "NEW"
	KindRetreaded TireKind = "RETREADED"
)

// IsValid checks if the kind is a known value
func (k TireKind) IsValid() bool {
	return k == KindNew || k == KindRetreaded
}

// DisposalMethod describes how a tire left the fleet
type DisposalMethod string

const (
	DisposalScrap            DisposalMethod = "SCRAP"
	DisposalSale             DisposalMethod = "SALE"
	DisposalRecycle          DisposalMethod = "RECYCLE"
	DisposalReturnToSupplier DisposalMethod = "RETURN_TO_SUPPLIER"
	DisposalOther            DisposalMethod = "OTHER"
)

// IsValid checks if the method is a known value
func (m DisposalMethod) IsValid() bool {
	switch m {
	case DisposalScrap, DisposalSale, DisposalRecycle, DisposalReturnToSupplier, DisposalOther:
		return true
	}
	return false
}

// Trigger returns the transition trigger a disposal with this method uses
func (m DisposalMethod) Trigger() Trigger {
	if m == DisposalScrap {
		return TriggerScrapped
	}
	return TriggerDisposed
}
