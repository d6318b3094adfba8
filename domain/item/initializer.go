package item

import (
	"context"
	"errors"

	"statusflow/bizerror"
	"statusflow/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// WorkflowResolver is the part of flow.Resolver the item services depend on.
type WorkflowResolver interface {
	ResolveWorkflow(ctx context.Context, entityType *domain.EntityType) (*domain.WorkflowDetail, error)
	ResolveInitialStatus(ctx context.Context, workflow *domain.WorkflowDetail) (*domain.Status, error)
	ResolveAllowedTransitions(ctx context.Context, workflow *domain.WorkflowDetail, current *domain.Status,
		roles []types.ID) ([]domain.Status, error)
}

// DefaultTypeProvider hands out the tenant default entity type of an item kind.
type DefaultTypeProvider interface {
	DefaultEntityType(ctx context.Context, kind string, companyID types.ID) (*domain.EntityType, error)
}

// IssueReporter receives configuration problems found while serving end users.
type IssueReporter interface {
	ReportConfigurationIssue(ctx context.Context, it domain.ProjectItem, err error)
}

type LogIssueReporter struct{}

func (LogIssueReporter) ReportConfigurationIssue(ctx context.Context, it domain.ProjectItem, err error) {
	fields := logrus.Fields{"audience": bizerror.AudienceAdministrator, "kind": it.ItemKind()}
	if t := it.EntityType(); t != nil {
		fields["entityTypeId"] = t.ID
		fields["workflowId"] = t.WorkflowID
	}
	logrus.WithFields(fields).WithError(err).Warn("item initialized without status")
}

type Initializer struct {
	resolver WorkflowResolver
	defaults DefaultTypeProvider
	reporter IssueReporter
}

// NewInitializer builds an initializer. A nil reporter logs issues, a nil defaults provider
// leaves untyped items untyped.
func NewInitializer(resolver WorkflowResolver, defaults DefaultTypeProvider, reporter IssueReporter) *Initializer {
	if reporter == nil {
		reporter = LogIssueReporter{}
	}
	return &Initializer{resolver: resolver, defaults: defaults, reporter: reporter}
}

// InitializeNewItem assigns the default entity type when it is missing and sets the initial
// status of the type's workflow. Items without workflow, and items whose workflow has no
// initial transition, are left without status. Only infrastructure failures are returned.
func (i *Initializer) InitializeNewItem(ctx context.Context, it domain.ProjectItem, project *domain.Project) error {
	if it.EntityType() == nil && i.defaults != nil && project != nil {
		t, err := i.defaults.DefaultEntityType(ctx, it.ItemKind(), project.CompanyID)
		if err != nil {
			return err
		}
		it.SetEntityType(t)
	}

	workflow, err := i.resolver.ResolveWorkflow(ctx, it.EntityType())
	if errors.Is(err, bizerror.ErrNoWorkflowConfigured) {
		it.SetStatus(nil)
		return nil
	}
	if err != nil {
		return err
	}

	initial, err := i.resolver.ResolveInitialStatus(ctx, workflow)
	if errors.Is(err, bizerror.ErrNoInitialStatusDefined) {
		i.reporter.ReportConfigurationIssue(ctx, it, err)
		it.SetStatus(nil)
		return nil
	}
	if err != nil {
		return err
	}
	it.SetStatus(initial)
	return nil
}
