package session

import "github.com/claude/repcoach/internal/models"

// State is the engine's execution state. It is finer grained than the
// persisted models.SessionStatus.
type State string

const (
	StateScheduled      State = "scheduled"
	StateInProgress     State = "in_progress"
	StateResting        State = "resting"
	StateSummaryPending State = "summary_pending"
	StateCompleted      State = "completed"
	StateCancelled      State = "cancelled"
)

// Status maps the execution state onto the persisted status.
func (s State) Status() models.SessionStatus {
	switch s {
	case StateScheduled:
		return models.StatusScheduled
	case StateCompleted:
		return models.StatusCompleted
	case StateCancelled:
		return models.StatusCancelled
	default:
		return models.StatusInProgress
	}
}

// IsTerminal reports whether the state accepts no further operations.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// running reports whether the elapsed clock may tick in this state.
func (s State) running() bool {
	return s == StateInProgress || s == StateResting || s == StateSummaryPending
}

type op string

const (
	opStart       op = "start"
	opUpdateSet   op = "update_set"
	opCompleteSet op = "complete_set"
	opAdvance     op = "advance_exercise"
	opSkipRest    op = "skip_rest"
	opPreviousSet op = "previous_set"
	opJump        op = "jump_to_exercise"
	opPause       op = "pause"
	opResume      op = "resume"
	opRate        op = "rate"
	opSave        op = "save"
	opFinalize    op = "finalize"
	opCancel      op = "cancel"
	opRestTick    op = "rest_tick"
)

var active = []State{StateInProgress, StateResting, StateSummaryPending}

// allowedFrom lists the states each operation may start from.
var allowedFrom = map[op][]State{
	opStart:       {StateScheduled},
	opUpdateSet:   active,
	opCompleteSet: {StateInProgress},
	opAdvance:     {StateInProgress},
	opSkipRest:    {StateResting},
	opPreviousSet: active,
	opJump:        active,
	opPause:       active,
	opResume:      active,
	opRate:        active,
	opSave:        {StateScheduled, StateInProgress, StateResting, StateSummaryPending},
	opFinalize:    active,
	opCancel:      {StateScheduled, StateInProgress, StateResting, StateSummaryPending},
}

// permitted returns the rejection code for running o in s, or "" when allowed.
func permitted(o op, s State) Code {
	for _, from := range allowedFrom[o] {
		if from == s {
			return ""
		}
	}
	switch {
	case s.IsTerminal():
		return CodeTerminal
	case o == opStart:
		return CodeAlreadyStarted
	case s == StateScheduled:
		return CodeNotStarted
	case o == opSkipRest:
		return CodeNotResting
	default:
		return CodeNotInProgress
	}
}
