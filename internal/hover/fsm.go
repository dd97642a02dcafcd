package hover

// State is the hover status of one sentence.
type State int

const (
	Idle State = iota
	Hovered
	Busy
	HoveredAndBusy
)

func (s State) String() string {
	switch s {
	case Hovered:
		return "hovered"
	case Busy:
		return "busy"
	case HoveredAndBusy:
		return "hovered+busy"
	default:
		return "idle"
	}
}

// Highlighted reports whether a sentence in state s is drawn highlighted.
func (s State) Highlighted() bool {
	return s != Idle
}

// Busy reports whether a translate call is in flight in state s.
func (s State) Busy() bool {
	return s == Busy || s == HoveredAndBusy
}

// Event drives a sentence's state.
type Event int

const (
	// EventEnter: the pointer entered the sentence in either pane.
	EventEnter Event = iota
	// EventBlur: another sentence became active.
	EventBlur
	// EventClear: a debounced clear fired.
	EventClear
	// EventDispatch: a translate call was dispatched.
	EventDispatch
	// EventResolve: the translate call resolved, with or without error.
	EventResolve
)

// transitions is the complete table; pairs not listed leave the state as is.
// Busy states ignore EventClear, so a busy sentence is never cleared by
// pointer movement.
var transitions = map[State]map[Event]State{
	Idle: {
		EventEnter:    Hovered,
		EventDispatch: Busy,
	},
	Hovered: {
		EventBlur:     Idle,
		EventClear:    Idle,
		EventDispatch: HoveredAndBusy,
	},
	Busy: {
		EventEnter:   HoveredAndBusy,
		EventResolve: Idle,
	},
	HoveredAndBusy: {
		EventBlur:    Busy,
		EventResolve: Hovered,
	},
}

// Next returns the state reached from s on e.
func Next(s State, e Event) State {
	if next, ok := transitions[s][e]; ok {
		return next
	}
	return s
}
