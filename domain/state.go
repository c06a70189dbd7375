package domain

type State int

const (
	StateConnecting State = iota
	StateRegistering
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CanSubmit reports whether outbound chat text is accepted in this state.
func (s State) CanSubmit() bool {
	return s == StateRegistering || s == StateActive
}

// Snapshot is a read-only copy of the session state handed to renderers.
type Snapshot struct {
	Identity Identity
	State    State
	Presence []PresenceEntry
	Messages []MessageRecord
}

// NewSnapshot copies both slices so later appends never alias a published snapshot.
func NewSnapshot(identity Identity, state State, presence []PresenceEntry, messages []MessageRecord) Snapshot {
	return Snapshot{
		Identity: identity,
		State:    state,
		Presence: append([]PresenceEntry(nil), presence...),
		Messages: append([]MessageRecord(nil), messages...),
	}
}
