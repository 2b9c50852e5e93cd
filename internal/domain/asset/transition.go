package asset

// Trigger is the enumerated kind of a tire transition. Every Movement carries one.
type Trigger string

const (
	TriggerReceived         Trigger = "RECEIVED"
	TriggerRetreadAccepted  Trigger = "RETREAD_ACCEPTED"
	TriggerInstalled        Trigger = "INSTALLED"
	TriggerRemoved          Trigger = "REMOVED"
	TriggerMarkedForRetread Trigger = "MARKED_FOR_RETREAD"
	TriggerRetreadUnmarked  Trigger = "RETREAD_UNMARKED"
	TriggerSentForRetread   Trigger = "SENT_FOR_RETREAD"
	TriggerRetreadRejected  Trigger = "RETREAD_REJECTED"
	TriggerDisposed         Trigger = "DISPOSED"
	TriggerScrapped         Trigger = "SCRAPPED"
	TriggerDisposalReversal Trigger = "DISPOSAL_REVERSAL"
)

// String returns the string representation
func (t Trigger) String() string {
	return string(t)
}

// IsCreation reports whether the trigger brings a new tire identity into existence
func (t Trigger) IsCreation() bool {
	return t == TriggerReceived || t == TriggerRetreadAccepted
}

type transitionKey struct {
	from    TireStatus
	trigger Trigger
}

// transitions is the complete tire state machine. Pairs missing from the table are rejected.
var transitions = map[transitionKey]TireStatus{
	{"", TriggerReceived}:                             StatusInStore,
	{StatusAtRetreadSupplier, TriggerRetreadAccepted}: StatusInStore,
	{StatusInStore, TriggerInstalled}:                 StatusOnVehicle,
	{StatusUsedStore, TriggerInstalled}:               StatusOnVehicle,
	{StatusOnVehicle, TriggerRemoved}:                 StatusUsedStore,
	{StatusUsedStore, TriggerMarkedForRetread}:        StatusAwaitingRetread,
	{StatusAwaitingRetread, TriggerRetreadUnmarked}:   StatusUsedStore,
	{StatusAwaitingRetread, TriggerSentForRetread}:    StatusAtRetreadSupplier,
	{StatusAtRetreadSupplier, TriggerRetreadRejected}: StatusUsedStore,
	{StatusInStore, TriggerDisposed}:                  StatusDisposed,
	{StatusUsedStore, TriggerDisposed}:                StatusDisposed,
	{StatusAwaitingRetread, TriggerDisposed}:          StatusDisposed,
	{StatusInStore, TriggerScrapped}:                  StatusScrap,
	{StatusUsedStore, TriggerScrapped}:                StatusScrap,
	{StatusAwaitingRetread, TriggerScrapped}:          StatusScrap,
	{StatusDisposed, TriggerDisposalReversal}:         StatusUsedStore,
}

// NextStatus looks up the transition table. ok is false when the pair is not allowed.
func NextStatus(from TireStatus, trigger Trigger) (TireStatus, bool) {
	to, ok := transitions[transitionKey{from: from, trigger: trigger}]
	return to, ok
}

// AllowedTriggers returns the triggers accepted from a status
func AllowedTriggers(from TireStatus) []Trigger {
	out := make([]Trigger, 0)
	for key := range transitions {
		if key.from == from {
			out = append(out, key.trigger)
		}
	}
	return out
}
