package dashboard

// State is the controller's load lifecycle.
type State int

const (
	// Idle is the state before Run and after teardown.
	Idle State = iota
	InitialLoading
	Refreshing
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InitialLoading:
		return "initial-loading"
	case Refreshing:
		return "refreshing"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a fetch the view is waiting on is in flight.
func (s State) Busy() bool {
	return s == InitialLoading || s == Refreshing
}
