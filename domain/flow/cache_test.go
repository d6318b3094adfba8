package flow_test

import (
	"context"
	"errors"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("CachedStore", func() {
	var (
		store  *memoryStore
		cached *flow.CachedStore
		ctx    = context.Background()
	)

	BeforeEach(func() {
		store = newMemoryStore()
		store.workflows[1] = domain.Workflow{ID: 1, Name: "wf"}
		store.transitions[1] = []state.Transition{{ID: 3, To: 10, Initial: true, Roles: []types.ID{7}}}
		store.types[2] = domain.EntityType{ID: 2, WorkflowID: 1}
		store.statuses[10] = domain.Status{ID: 10, Name: "Open"}
		store.statuses[11] = domain.Status{ID: 11, Name: "Done"}
		cached = flow.NewCachedStore(store, time.Minute)
	})

	It("should serve repeated loads from memory", func() {
		for i := 0; i < 3; i++ {
			wf, err := cached.LoadWorkflow(ctx, 1)
			Expect(err).To(BeNil())
			Expect(wf.Name).To(Equal("wf"))
			_, err = cached.LoadTransitions(ctx, 1)
			Expect(err).To(BeNil())
			_, err = cached.LoadEntityType(ctx, 2)
			Expect(err).To(BeNil())
			_, err = cached.LoadStatus(ctx, 10)
			Expect(err).To(BeNil())
		}
		Expect(store.loads).To(Equal(4))
	})

	It("should reload after invalidation", func() {
		_, err := cached.LoadWorkflow(ctx, 1)
		Expect(err).To(BeNil())

		store.workflows[1] = domain.Workflow{ID: 1, Name: "renamed"}
		wf, _ := cached.LoadWorkflow(ctx, 1)
		Expect(wf.Name).To(Equal("wf"))

		cached.Invalidate()
		wf, _ = cached.LoadWorkflow(ctx, 1)
		Expect(wf.Name).To(Equal("renamed"))
	})

	It("should not keep values read before an overlapping invalidation", func() {
		store.afterRead = func() {
			store.transitions[1] = []state.Transition{{ID: 4, To: 11, Initial: true}}
			cached.Invalidate()
		}
		stale, err := cached.LoadTransitions(ctx, 1)
		Expect(err).To(BeNil())
		Expect(stale[0].ID).To(Equal(types.ID(3)))

		fresh, err := cached.LoadTransitions(ctx, 1)
		Expect(err).To(BeNil())
		Expect(fresh).To(Equal([]state.Transition{{ID: 4, To: 11, Initial: true}}))

		store.afterRead = func() {
			store.statuses[10] = domain.Status{ID: 10, Name: "Reopened"}
			cached.Invalidate()
		}
		_, err = cached.LoadStatuses(ctx, []types.ID{10})
		Expect(err).To(BeNil())
		s, err := cached.LoadStatus(ctx, 10)
		Expect(err).To(BeNil())
		Expect(s.Name).To(Equal("Reopened"))
	})

	It("should hand out copies", func() {
		transitions, err := cached.LoadTransitions(ctx, 1)
		Expect(err).To(BeNil())
		transitions[0].Roles[0] = 99
		transitions[0].To = 11

		again, err := cached.LoadTransitions(ctx, 1)
		Expect(err).To(BeNil())
		Expect(again).To(Equal([]state.Transition{{ID: 3, To: 10, Initial: true, Roles: []types.ID{7}}}))

		wf, _ := cached.LoadWorkflow(ctx, 1)
		wf.Name = "mutated"
		wf, _ = cached.LoadWorkflow(ctx, 1)
		Expect(wf.Name).To(Equal("wf"))
	})

	It("should load missing statuses in one batch and keep the requested order", func() {
		_, err := cached.LoadStatus(ctx, 11)
		Expect(err).To(BeNil())
		loads := store.loads

		statuses, err := cached.LoadStatuses(ctx, []types.ID{11, 10})
		Expect(err).To(BeNil())
		Expect(statuses).To(Equal([]domain.Status{store.statuses[11], store.statuses[10]}))
		Expect(store.loads).To(Equal(loads + 1))
	})

	It("should not cache failures", func() {
		_, err := cached.LoadStatus(ctx, 12)
		Expect(errors.Is(err, bizerror.ErrNotFound)).To(BeTrue())

		store.statuses[12] = domain.Status{ID: 12, Name: "Late"}
		s, err := cached.LoadStatus(ctx, 12)
		Expect(err).To(BeNil())
		Expect(s.Name).To(Equal("Late"))
	})
})
