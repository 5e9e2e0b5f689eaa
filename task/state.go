package task

import "fmt"

type State int

const (
	Pending State = iota
	Matched
	Unmatched
	Launched
	Failed
	Killed
)

func (s State) String() string {

	var str string
	switch s {
	case Pending:
		str = "Pending"
	case Matched:
		str = "Matched"
	case Unmatched:
		str = "Unmatched"
	case Launched:
		str = "Launched"
	case Failed:
		str = "Failed"
	case Killed:
		str = "Killed"
	}

	return str
}

// States lists every task state in order.
func States() []State {
	return []State{Pending, Matched, Unmatched, Launched, Failed, Killed}
}

var stateTransitionMap = map[State][]State{
	Pending:   {Matched, Unmatched},
	Unmatched: {Pending},
	Matched:   {Launched, Failed},
	Launched:  {Failed, Killed},
	Failed:    {Pending},
}

func Contains(states []State, state State) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}

	return false
}

func ValidStateTransition(src State, dst State) bool {
	return Contains(stateTransitionMap[src], dst)
}

// Transition moves the task to dst, refusing transitions the state
// machine does not allow.
func (t *Task) Transition(dst State) error {
	if !ValidStateTransition(t.State, dst) {
		return fmt.Errorf("task %s: invalid transition from %v to %v", t.ID, t.State, dst)
	}
	t.State = dst
	return nil
}
