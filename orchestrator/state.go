package orchestrator

import "strings"

// State is where an article is in the pipeline.
type State string

const (
	StateDiscovered     State = "discovered"
	StateFetched        State = "fetched"
	StateExtracted      State = "extracted"
	StateRewritePending State = "rewrite_pending"
	StateRewritten      State = "rewritten"
	StateValidated      State = "validated"

	// Terminal states. Irrelevant and Rejected articles have their
	// original stored but no rewrite.
	StateDuplicate  State = "duplicate"
	StateIrrelevant State = "irrelevant"
	StateRejected   State = "rejected"
	StateFailed     State = "failed"
	StatePersisted  State = "persisted"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateDuplicate, StateIrrelevant, StateRejected, StateFailed, StatePersisted:
		return true
	}
	return false
}

// transitions lists the allowed moves out of each non-terminal state.
var transitions = map[State][]State{
	StateDiscovered:     {StateFetched, StateDuplicate, StateFailed},
	StateFetched:        {StateExtracted, StateFailed},
	StateExtracted:      {StateRewritePending, StateIrrelevant, StateDuplicate, StateFailed},
	StateRewritePending: {StateRewritten, StateFailed},
	StateRewritten:      {StateValidated, StateRejected, StateDuplicate, StateFailed},
	StateValidated:      {StatePersisted, StateDuplicate, StateFailed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// item tracks one article through a run.
type item struct {
	state State
	trail []State
}

func newItem() *item {
	return &item{state: StateDiscovered, trail: []State{StateDiscovered}}
}

// move advances the item. Illegal moves panic; they are programming errors.
func (it *item) move(to State) {
	if !CanTransition(it.state, to) {
		panic("orchestrator: illegal transition " + string(it.state) + " -> " + string(to))
	}
	it.state = to
	it.trail = append(it.trail, to)
}

func (it *item) path() string {
	parts := make([]string, len(it.trail))
	for i, s := range it.trail {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}
