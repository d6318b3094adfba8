package state

import (
	"sort"

	"github.com/fundwit/go-commons/types"
)

// Transition is an edge of the state machine. From is zero for initial edges.
// An empty Roles set permits anyone.
type Transition struct {
	ID      types.ID   `json:"id"`
	From    types.ID   `json:"from"`
	To      types.ID   `json:"to"`
	Initial bool       `json:"initial"`
	Roles   []types.ID `json:"roles"`
}

func (t Transition) IsInitial() bool {
	return t.From == 0 && t.Initial
}

func (t Transition) PermittedFor(roles []types.ID) bool {
	if len(t.Roles) == 0 {
		return true
	}
	for _, r := range t.Roles {
		for _, held := range roles {
			if r == held {
				return true
			}
		}
	}
	return false
}

// stateless object, just used for state computing
type StateMachine struct {
	Transitions []Transition `json:"transitions"`
}

func NewStateMachine(transitions []Transition) *StateMachine {
	return &StateMachine{Transitions: transitions}
}

// InitialTransitions returns the initial edges ordered by ascending ID.
func (sm *StateMachine) InitialTransitions() []Transition {
	r := []Transition{}
	for _, t := range sm.Transitions {
		if t.IsInitial() {
			r = append(r, t)
		}
	}
	sort.SliceStable(r, func(i, j int) bool { return r[i].ID < r[j].ID })
	return r
}

// AvailableTransitions returns the edges leaving from that the given roles may traverse,
// in declared order. A zero from selects the initial edges.
func (sm *StateMachine) AvailableTransitions(from types.ID, roles []types.ID) []Transition {
	r := []Transition{}
	for _, t := range sm.Transitions {
		if t.From != from {
			continue
		}
		if from == 0 && !t.Initial {
			continue
		}
		if t.PermittedFor(roles) {
			r = append(r, t)
		}
	}
	return r
}

// FindTransition looks up the edge from -> to regardless of roles.
func (sm *StateMachine) FindTransition(from, to types.ID) (Transition, bool) {
	for _, t := range sm.Transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// StatusIDs returns every status referenced by an edge, in first-seen order.
func (sm *StateMachine) StatusIDs() []types.ID {
	seen := map[types.ID]bool{}
	r := []types.ID{}
	for _, t := range sm.Transitions {
		for _, id := range []types.ID{t.From, t.To} {
			if id != 0 && !seen[id] {
				seen[id] = true
				r = append(r, id)
			}
		}
	}
	return r
}

// ReachableStatusIDs walks the graph from the initial edges.
func (sm *StateMachine) ReachableStatusIDs() map[types.ID]bool {
	reached := map[types.ID]bool{}
	queue := []types.ID{}
	for _, t := range sm.InitialTransitions() {
		if !reached[t.To] {
			reached[t.To] = true
			queue = append(queue, t.To)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, t := range sm.Transitions {
			if t.From == current && !reached[t.To] {
				reached[t.To] = true
				queue = append(queue, t.To)
			}
		}
	}
	return reached
}
