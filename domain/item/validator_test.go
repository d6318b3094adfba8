package item_test

import (
	"context"
	"errors"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/item"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("TransitionValidator", func() {
	const (
		open     types.ID = 10
		inReview types.ID = 20
		closed   types.ID = 30

		reviewer types.ID = 100
		outsider types.ID = 200
	)

	var (
		s           *store
		validator   *item.TransitionValidator
		initializer *item.Initializer
		reviewType  = &domain.EntityType{ID: 1, Name: "Bug", Kind: "card", CompanyID: 3, WorkflowID: 50}
		ctx         = context.Background()
	)

	status := func(id types.ID) *domain.Status {
		st := s.statuses[id]
		return &st
	}

	BeforeEach(func() {
		s = newStore()
		s.statuses[open] = domain.Status{ID: open, Name: "Open", CompanyID: 3}
		s.statuses[inReview] = domain.Status{ID: inReview, Name: "InReview", CompanyID: 3}
		s.statuses[closed] = domain.Status{ID: closed, Name: "Closed", CompanyID: 3}
		s.workflows[50] = domain.Workflow{ID: 50, Name: "review flow", ProjectID: 7, Active: true}
		s.transitions[50] = []state.Transition{
			{ID: 1, To: open, Initial: true},
			{ID: 2, From: open, To: inReview, Roles: []types.ID{reviewer}},
			{ID: 3, From: inReview, To: closed, Roles: []types.ID{reviewer}},
		}
		resolver := flow.NewResolver(s)
		validator = item.NewTransitionValidator(resolver)
		initializer = item.NewInitializer(resolver, nil, nil)
	})

	It("should walk the review scenario end to end", func() {
		c := &card{entityType: reviewType}
		Expect(initializer.InitializeNewItem(ctx, c, &domain.Project{ID: 7, CompanyID: 3})).To(BeNil())
		Expect(c.status.Name).To(Equal("Open"))

		actor := domain.Actor{ID: 1, Name: "rev", Roles: []types.ID{reviewer}}
		Expect(validator.ApplyTransition(ctx, c, status(inReview), actor)).To(BeNil())
		Expect(c.status.Name).To(Equal("InReview"))
		Expect(validator.ApplyTransition(ctx, c, status(closed), actor)).To(BeNil())
		Expect(c.status.Name).To(Equal("Closed"))

		err := validator.ApplyTransition(ctx, c, status(open), domain.Actor{ID: 2, Roles: []types.ID{outsider}})
		Expect(errors.Is(err, bizerror.ErrTransitionNotAllowed)).To(BeTrue())
		var illegal *bizerror.ErrIllegalTransition
		Expect(errors.As(err, &illegal)).To(BeTrue())
		Expect(illegal.From).To(Equal("Closed"))
		Expect(illegal.To).To(Equal("Open"))
		Expect(illegal.WorkflowID).To(Equal(types.ID(50)))
		Expect(c.status.Name).To(Equal("Closed"))
	})

	It("should reject actors lacking the role like missing edges", func() {
		c := &card{entityType: reviewType, status: status(open)}
		lacking := validator.ApplyTransition(ctx, c, status(inReview), domain.Actor{ID: 2, Roles: []types.ID{outsider}})
		missing := validator.ApplyTransition(ctx, c, status(closed), domain.Actor{ID: 2, Roles: []types.ID{reviewer}})
		Expect(errors.Is(lacking, bizerror.ErrTransitionNotAllowed)).To(BeTrue())
		Expect(errors.Is(missing, bizerror.ErrTransitionNotAllowed)).To(BeTrue())
		Expect(bizerror.Describe(lacking).Code).To(Equal(bizerror.Describe(missing).Code))
		Expect(c.status.Name).To(Equal("Open"))
	})

	It("should not allow implicit self transitions", func() {
		c := &card{entityType: reviewType, status: status(open)}
		err := validator.ApplyTransition(ctx, c, status(open), domain.Actor{Roles: []types.ID{reviewer}})
		Expect(errors.Is(err, bizerror.ErrTransitionNotAllowed)).To(BeTrue())

		s.transitions[50] = append(s.transitions[50], state.Transition{ID: 4, From: open, To: open, Roles: []types.ID{reviewer}})
		Expect(validator.ApplyTransition(ctx, c, status(open), domain.Actor{Roles: []types.ID{outsider}})).ToNot(BeNil())
		Expect(validator.ApplyTransition(ctx, c, status(open), domain.Actor{Roles: []types.ID{reviewer}})).To(BeNil())
	})

	It("should only accept initial edges for items without status", func() {
		c := &card{entityType: reviewType}
		err := validator.ApplyTransition(ctx, c, status(inReview), domain.Actor{Roles: []types.ID{reviewer}})
		var illegal *bizerror.ErrIllegalTransition
		Expect(errors.As(err, &illegal)).To(BeTrue())
		Expect(illegal.From).To(BeEmpty())

		Expect(validator.ApplyTransition(ctx, c, status(open), domain.Actor{})).To(BeNil())
		Expect(c.status.ID).To(Equal(open))
	})

	It("should report workflow not applicable for items without workflow", func() {
		c := &card{entityType: &domain.EntityType{ID: 2}}
		Expect(validator.ApplyTransition(ctx, c, status(open), domain.Actor{})).To(Equal(bizerror.ErrWorkflowNotApplicable))
		Expect(validator.ApplyTransition(ctx, &card{}, status(open), domain.Actor{})).To(Equal(bizerror.ErrWorkflowNotApplicable))

		available, err := validator.AvailableStatuses(ctx, c, domain.Actor{})
		Expect(err).To(BeNil())
		Expect(available).To(BeEmpty())
	})

	It("should list the statuses available to the actor", func() {
		c := &card{entityType: reviewType, status: status(open)}
		available, err := validator.AvailableStatuses(ctx, c, domain.Actor{Roles: []types.ID{reviewer}})
		Expect(err).To(BeNil())
		Expect(len(available)).To(Equal(1))
		Expect(available[0].Name).To(Equal("InReview"))

		available, err = validator.AvailableStatuses(ctx, c, domain.Actor{Roles: []types.ID{outsider}})
		Expect(err).To(BeNil())
		Expect(available).To(BeEmpty())
	})
})
