package state

// EventKind classifies a document change.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventUpdated
	EventReordered
	EventCleared
	EventBackground
	// EventPreviewed is an uncommitted attribute change, such as a slider
	// being dragged. It redraws but is not recorded.
	EventPreviewed
	// EventRestored replaces the whole state from a snapshot.
	EventRestored
	EventSelected
)

var eventNames = [...]string{
	EventAdded:      "added",
	EventRemoved:    "removed",
	EventUpdated:    "updated",
	EventReordered:  "reordered",
	EventCleared:    "cleared",
	EventBackground: "background",
	EventPreviewed:  "previewed",
	EventRestored:   "restored",
	EventSelected:   "selected",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event describes one change. ID is the object concerned, if any. Kind of an
// object is carried for labelling history records.
type Event struct {
	Kind   EventKind
	ID     string
	Object Kind
}

// Mutation reports whether the event is a committed change that history records.
func (e Event) Mutation() bool {
	switch e.Kind {
	case EventAdded, EventRemoved, EventUpdated, EventReordered, EventCleared, EventBackground:
		return true
	}
	return false
}

// Label is a short human description, e.g. "add rectangle".
func (e Event) Label() string {
	verb := map[EventKind]string{
		EventAdded:      "add",
		EventRemoved:    "delete",
		EventUpdated:    "edit",
		EventReordered:  "reorder",
		EventCleared:    "clear canvas",
		EventBackground: "change background",
	}[e.Kind]
	if verb == "" {
		verb = e.Kind.String()
	}
	if e.Object == "" {
		return verb
	}
	return verb + " " + string(e.Object)
}

// Observer receives document events synchronously, in the order they happen.
type Observer func(Event)
