package pipeline

// State is a stage of a pipeline run. A run only moves forward.
type State int32

const (
	StateInit State = iota
	StateRosterResolved
	StateScheduleIndexed
	StateDispatched
	StateCollecting
	StateDone
)

var stateNames = [...]string{
	StateInit:            "init",
	StateRosterResolved:  "roster_resolved",
	StateScheduleIndexed: "schedule_indexed",
	StateDispatched:      "dispatched",
	StateCollecting:      "collecting",
	StateDone:            "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
