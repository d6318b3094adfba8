package flow_test

import (
	"context"
	"errors"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("Resolver", func() {
	const (
		open     types.ID = 10
		inReview types.ID = 20
		closed   types.ID = 30

		reviewer types.ID = 100
	)

	var (
		store    *memoryStore
		resolver *flow.Resolver
		ctx      = context.Background()
		bugType  = &domain.EntityType{ID: 1, Name: "Bug", Kind: "ticket", CompanyID: 9, WorkflowID: 50}
	)

	BeforeEach(func() {
		store = newMemoryStore()
		store.statuses[open] = domain.Status{ID: open, Name: "Open", CompanyID: 9}
		store.statuses[inReview] = domain.Status{ID: inReview, Name: "InReview", CompanyID: 9}
		store.statuses[closed] = domain.Status{ID: closed, Name: "Closed", CompanyID: 9}
		store.workflows[50] = domain.Workflow{ID: 50, Name: "review flow", ProjectID: 7, Active: true}
		store.transitions[50] = []state.Transition{
			{ID: 1, From: 0, To: open, Initial: true},
			{ID: 2, From: open, To: inReview, Roles: []types.ID{reviewer}},
			{ID: 3, From: inReview, To: closed, Roles: []types.ID{reviewer}},
			{ID: 4, From: inReview, To: open},
			{ID: 5, From: inReview, To: open, Roles: []types.ID{reviewer}},
		}
		resolver = flow.NewResolver(store)
	})

	Describe("ResolveWorkflow", func() {
		It("should report no workflow for nil or unbound types", func() {
			_, err := resolver.ResolveWorkflow(ctx, nil)
			Expect(err).To(Equal(bizerror.ErrNoWorkflowConfigured))

			_, err = resolver.ResolveWorkflow(ctx, &domain.EntityType{ID: 2})
			Expect(err).To(Equal(bizerror.ErrNoWorkflowConfigured))
		})

		It("should treat dangling references as not configured", func() {
			_, err := resolver.ResolveWorkflow(ctx, &domain.EntityType{ID: 2, WorkflowID: 404})
			Expect(err).To(Equal(bizerror.ErrNoWorkflowConfigured))
		})

		It("should propagate storage failures", func() {
			store.err = errors.New("connection refused")
			_, err := resolver.ResolveWorkflow(ctx, bugType)
			Expect(err).To(MatchError("connection refused"))
		})

		It("should return the workflow with its transitions", func() {
			wf, err := resolver.ResolveWorkflow(ctx, bugType)
			Expect(err).To(BeNil())
			Expect(wf.Workflow).To(Equal(store.workflows[50]))
			Expect(wf.StateMachine.Transitions).To(Equal(store.transitions[50]))
		})
	})

	Describe("ResolveInitialStatus", func() {
		It("should return the target of the single initial transition on every call", func() {
			wf, err := resolver.ResolveWorkflow(ctx, bugType)
			Expect(err).To(BeNil())
			for i := 0; i < 3; i++ {
				s, err := resolver.ResolveInitialStatus(ctx, wf)
				Expect(err).To(BeNil())
				Expect(s.ID).To(Equal(open))
			}
		})

		It("should fail without initial transitions", func() {
			wf := &domain.WorkflowDetail{Workflow: domain.Workflow{ID: 51, Name: "broken"},
				StateMachine: state.StateMachine{Transitions: []state.Transition{{ID: 9, From: open, To: closed}}}}
			_, err := resolver.ResolveInitialStatus(ctx, wf)
			Expect(errors.Is(err, bizerror.ErrNoInitialStatusDefined)).To(BeTrue())
			var typed *bizerror.ErrNoInitialStatus
			Expect(errors.As(err, &typed)).To(BeTrue())
			Expect(typed.WorkflowID).To(Equal(types.ID(51)))
		})

		It("should pick the lowest transition id and warn when several are initial", func() {
			hook := test.NewGlobal()
			defer hook.Reset()

			wf := &domain.WorkflowDetail{Workflow: domain.Workflow{ID: 52, Name: "ambiguous"},
				StateMachine: state.StateMachine{Transitions: []state.Transition{
					{ID: 8, To: closed, Initial: true},
					{ID: 6, To: inReview, Initial: true},
				}}}
			s, err := resolver.ResolveInitialStatus(ctx, wf)
			Expect(err).To(BeNil())
			Expect(s.ID).To(Equal(inReview))

			Expect(hook.LastEntry()).ToNot(BeNil())
			Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
			Expect(hook.LastEntry().Data["workflowId"]).To(Equal(types.ID(52)))
			Expect(hook.LastEntry().Data["chosen"]).To(Equal(types.ID(6)))
		})
	})

	Describe("ResolveAllowedTransitions", func() {
		var wf *domain.WorkflowDetail
		BeforeEach(func() {
			var err error
			wf, err = resolver.ResolveWorkflow(ctx, bugType)
			Expect(err).To(BeNil())
		})

		It("should gate transitions by role", func() {
			allowed, err := resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: open}, []types.ID{reviewer})
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{store.statuses[inReview]}))

			allowed, err = resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: open}, []types.ID{999})
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{}))
		})

		It("should de-duplicate targets and order them by transition id", func() {
			allowed, err := resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: inReview}, []types.ID{reviewer})
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{store.statuses[closed], store.statuses[open]}))

			allowed, err = resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: inReview}, nil)
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{store.statuses[open]}))
		})

		It("should order targets by status sort order first", func() {
			reopened := store.statuses[open]
			reopened.SortOrder = 1
			store.statuses[open] = reopened
			done := store.statuses[closed]
			done.SortOrder = 3
			store.statuses[closed] = done

			allowed, err := resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: inReview}, []types.ID{reviewer})
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{store.statuses[open], store.statuses[closed]}))
		})

		It("should answer initial statuses without a current status", func() {
			allowed, err := resolver.ResolveAllowedTransitions(ctx, wf, nil, nil)
			Expect(err).To(BeNil())
			Expect(allowed).To(Equal([]domain.Status{store.statuses[open]}))
		})

		It("should return empty result for terminal statuses", func() {
			allowed, err := resolver.ResolveAllowedTransitions(ctx, wf, &domain.Status{ID: closed}, []types.ID{reviewer})
			Expect(err).To(BeNil())
			Expect(allowed).To(BeEmpty())
		})
	})
})
