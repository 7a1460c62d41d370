package scoring

// Strategy is the recommended action plan for an execution state
type Strategy struct {
	State    ExecutionState `json:"state"`
	Headline string         `json:"headline"`
	Action   string         `json:"action"`
}

// StrategyFor returns the action plan for an execution state
func StrategyFor(state ExecutionState) Strategy {
	switch state {
	case StateStrongGo:
		return Strategy{
			State:    state,
			Headline: "The window is open",
			Action:   "Draft and send now; delay risks missing the engagement window.",
		}
	case StateProceed:
		return Strategy{
			State:    state,
			Headline: "Conditions are favorable",
			Action:   "Draft carefully and send within a few hours; make sure the angle is sharp.",
		}
	case StateCaution:
		return Strategy{
			State:    state,
			Headline: "Friction detected",
			Action:   "Do not pitch. Warm them up with a soft touch or a no-ask value add.",
		}
	default:
		return Strategy{
			State:    StateAbort,
			Headline: "The door is shut",
			Action:   "Do not send. Add to the watchlist and wait for a signal change.",
		}
	}
}
