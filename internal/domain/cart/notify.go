package cart

// EventKind enumerates the notifications a cart emits for user feedback.
type EventKind string

const (
	// EventItemAdded is emitted on every Add, carrying the entry name.
	EventItemAdded EventKind = "item_added"
	// EventItemRemoved is emitted when an existing line is deleted.
	EventItemRemoved EventKind = "item_removed"
	// EventCartCleared is emitted on Clear.
	EventCartCleared EventKind = "cart_cleared"
)

// Event is an inert notification; no acknowledgment is expected.
type Event struct {
	Kind EventKind
	Item string
}

// Notifier receives cart events.
type Notifier interface {
	Notify(e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(e Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// Recorder is a Notifier that keeps every event it receives.
type Recorder struct {
	events []Event
}

// Notify appends e.
func (r *Recorder) Notify(e Event) {
	r.events = append(r.events, e)
}

// Drain returns the recorded events and forgets them.
func (r *Recorder) Drain() []Event {
	events := r.events
	r.events = nil
	return events
}
