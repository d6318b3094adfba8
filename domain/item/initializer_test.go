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
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("Initializer", func() {
	const (
		open   types.ID = 10
		closed types.ID = 20
	)

	var (
		s           *store
		defaults    *defaultTypes
		reporter    *recordingReporter
		initializer *item.Initializer
		project     = &domain.Project{ID: 7, Name: "rocket", CompanyID: 3}
		ctx         = context.Background()
	)

	BeforeEach(func() {
		s = newStore()
		s.statuses[open] = domain.Status{ID: open, Name: "Open", CompanyID: 3}
		s.statuses[closed] = domain.Status{ID: closed, Name: "Closed", CompanyID: 3}
		s.workflows[50] = domain.Workflow{ID: 50, Name: "flow", ProjectID: 7, Active: true}
		s.transitions[50] = []state.Transition{
			{ID: 1, To: open, Initial: true},
			{ID: 2, From: open, To: closed},
		}
		defaults = &defaultTypes{}
		reporter = &recordingReporter{}
		initializer = item.NewInitializer(flow.NewResolver(s), defaults, reporter)
	})

	It("should set the initial status of the type's workflow", func() {
		c := &card{entityType: &domain.EntityType{ID: 1, WorkflowID: 50}}
		Expect(initializer.InitializeNewItem(ctx, c, project)).To(BeNil())
		Expect(c.status.ID).To(Equal(open))
		Expect(defaults.calls).To(BeEmpty())
	})

	It("should assign the default type to untyped items", func() {
		defaults.entityType = &domain.EntityType{ID: 9, Name: "Default", Kind: "card", CompanyID: 3, WorkflowID: 50}
		c := &card{}
		Expect(initializer.InitializeNewItem(ctx, c, project)).To(BeNil())
		Expect(defaults.calls).To(Equal([]string{"card@3"}))
		Expect(c.entityType.ID).To(Equal(types.ID(9)))
		Expect(c.status.Name).To(Equal("Open"))
	})

	It("should leave items without workflow untouched", func() {
		c := &card{entityType: &domain.EntityType{ID: 1}}
		Expect(initializer.InitializeNewItem(ctx, c, project)).To(BeNil())
		Expect(c.status).To(BeNil())
		Expect(reporter.issues).To(BeEmpty())

		defaults.entityType = nil
		untyped := &card{}
		Expect(initializer.InitializeNewItem(ctx, untyped, project)).To(BeNil())
		Expect(untyped.status).To(BeNil())
	})

	It("should report workflows without initial transition to administrators", func() {
		s.transitions[50] = []state.Transition{{ID: 2, From: open, To: closed}}
		c := &card{entityType: &domain.EntityType{ID: 1, WorkflowID: 50}}
		Expect(initializer.InitializeNewItem(ctx, c, project)).To(BeNil())
		Expect(c.status).To(BeNil())
		Expect(len(reporter.issues)).To(Equal(1))
		Expect(errors.Is(reporter.issues[0], bizerror.ErrNoInitialStatusDefined)).To(BeTrue())
	})

	It("should log the issue when no reporter is given", func() {
		hook := test.NewGlobal()
		defer hook.Reset()

		s.transitions[50] = nil
		c := &card{entityType: &domain.EntityType{ID: 1, WorkflowID: 50}}
		Expect(item.NewInitializer(flow.NewResolver(s), nil, nil).InitializeNewItem(ctx, c, project)).To(BeNil())
		Expect(hook.LastEntry()).ToNot(BeNil())
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
		Expect(hook.LastEntry().Data["audience"]).To(Equal(bizerror.AudienceAdministrator))
		Expect(hook.LastEntry().Data["workflowId"]).To(Equal(types.ID(50)))
	})

	It("should return infrastructure failures", func() {
		defaults.err = errStorage
		Expect(initializer.InitializeNewItem(ctx, &card{}, project)).To(Equal(errStorage))

		s.broken = true
		Expect(initializer.InitializeNewItem(ctx, &card{entityType: &domain.EntityType{ID: 1, WorkflowID: 50}}, project)).
			To(Equal(errStorage))
	})
})
