package world

// Phase is the step of the round protocol the world is in. A round always
// walks Snapshotting -> Proposing -> Resolving -> Committing -> Done.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSnapshotting
	PhaseProposing
	PhaseResolving
	PhaseCommitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseSnapshotting:
		return "SNAPSHOTTING"
	case PhaseProposing:
		return "PROPOSING"
	case PhaseResolving:
		return "RESOLVING"
	case PhaseCommitting:
		return "COMMITTING"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}
