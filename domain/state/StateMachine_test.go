package state_test

import (
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const (
	open     types.ID = 10
	inReview types.ID = 20
	closed   types.ID = 30
	archived types.ID = 40

	reviewer  types.ID = 100
	developer types.ID = 200
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
	)

	BeforeEach(func() {
		//            OPEN         IN_REVIEW      CLOSED
		// (none)     V (initial)  X              X
		// OPEN       -            V (reviewer)   X
		// IN_REVIEW  V (anyone)   -              V (reviewer)
		// CLOSED     X            X              V (developer, self)
		stateMachine = state.NewStateMachine([]state.Transition{
			{ID: 5, From: 0, To: open, Initial: true},
			{ID: 6, From: open, To: inReview, Roles: []types.ID{reviewer}},
			{ID: 7, From: inReview, To: closed, Roles: []types.ID{reviewer}},
			{ID: 8, From: inReview, To: open},
			{ID: 9, From: closed, To: closed, Roles: []types.ID{developer}},
		})
	})

	Describe("PermittedFor", func() {
		It("should permit anyone when no role is declared", func() {
			Expect(state.Transition{}.PermittedFor(nil)).To(BeTrue())
			Expect(state.Transition{}.PermittedFor([]types.ID{reviewer})).To(BeTrue())
		})
		It("should require an intersection with declared roles", func() {
			t := state.Transition{Roles: []types.ID{reviewer, developer}}
			Expect(t.PermittedFor([]types.ID{developer})).To(BeTrue())
			Expect(t.PermittedFor([]types.ID{300})).To(BeFalse())
			Expect(t.PermittedFor(nil)).To(BeFalse())
		})
	})

	Describe("InitialTransitions", func() {
		It("should return initial edges ordered by id", func() {
			sm := state.NewStateMachine([]state.Transition{
				{ID: 9, To: closed, Initial: true},
				{ID: 3, To: open, Initial: true},
				{ID: 4, From: open, To: closed},
				{ID: 1, To: inReview},
			})
			Expect(sm.InitialTransitions()).To(Equal([]state.Transition{
				{ID: 3, To: open, Initial: true},
				{ID: 9, To: closed, Initial: true},
			}))
		})
		It("should return empty slice when none", func() {
			Expect(state.NewStateMachine(nil).InitialTransitions()).To(BeEmpty())
		})
	})

	Describe("AvailableTransitions", func() {
		It("should filter by from status and roles", func() {
			Expect(stateMachine.AvailableTransitions(open, []types.ID{reviewer})).To(Equal([]state.Transition{
				{ID: 6, From: open, To: inReview, Roles: []types.ID{reviewer}},
			}))
			Expect(stateMachine.AvailableTransitions(open, []types.ID{developer})).To(BeEmpty())

			Expect(stateMachine.AvailableTransitions(inReview, nil)).To(Equal([]state.Transition{
				{ID: 8, From: inReview, To: open},
			}))
			Expect(stateMachine.AvailableTransitions(inReview, []types.ID{reviewer})).To(HaveLen(2))
		})

		It("should answer initial edges for a zero from status", func() {
			Expect(stateMachine.AvailableTransitions(0, nil)).To(Equal([]state.Transition{
				{ID: 5, From: 0, To: open, Initial: true},
			}))
		})

		It("should only return explicit self edges", func() {
			Expect(stateMachine.AvailableTransitions(closed, []types.ID{developer})).To(Equal([]state.Transition{
				{ID: 9, From: closed, To: closed, Roles: []types.ID{developer}},
			}))
			Expect(stateMachine.AvailableTransitions(closed, []types.ID{reviewer})).To(BeEmpty())
			Expect(stateMachine.AvailableTransitions(archived, nil)).To(BeEmpty())
		})
	})

	Describe("FindTransition", func() {
		It("should find edges regardless of roles", func() {
			t, found := stateMachine.FindTransition(open, inReview)
			Expect(found).To(BeTrue())
			Expect(t.ID).To(Equal(types.ID(6)))

			_, found = stateMachine.FindTransition(closed, open)
			Expect(found).To(BeFalse())
		})
	})

	Describe("StatusIDs and ReachableStatusIDs", func() {
		It("should list referenced statuses in first-seen order", func() {
			Expect(stateMachine.StatusIDs()).To(Equal([]types.ID{open, inReview, closed}))
		})
		It("should walk from the initial edges", func() {
			sm := state.NewStateMachine(append(stateMachine.Transitions, state.Transition{ID: 11, From: archived, To: open}))
			Expect(sm.ReachableStatusIDs()).To(Equal(map[types.ID]bool{open: true, inReview: true, closed: true}))
		})
	})
})
