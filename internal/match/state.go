package match

import "fmt"

// State is the match lifecycle state.
type State int

const (
	Idle State = iota
	Paused
	Running
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "paused":
		*s = Paused
	case "running":
		*s = Running
	default:
		return fmt.Errorf("unknown match state %q", b)
	}
	return nil
}
