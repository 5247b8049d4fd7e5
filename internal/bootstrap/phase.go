package bootstrap

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseElevated
	PhaseProbed
	PhaseSeeded
	PhaseLoaded
	PhaseRestored
	PhaseReady
	// PhaseDegradedReady is terminal: the app is usable with whatever data
	// could be loaded.
	PhaseDegradedReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseElevated:
		return "elevated"
	case PhaseProbed:
		return "probed"
	case PhaseSeeded:
		return "seeded"
	case PhaseLoaded:
		return "loaded"
	case PhaseRestored:
		return "restored"
	case PhaseReady:
		return "ready"
	case PhaseDegradedReady:
		return "degraded_ready"
	default:
		return "unknown"
	}
}

// Terminal reports whether the sequence has finished.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseDegradedReady
}
