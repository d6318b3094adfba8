package item

import (
	"context"
	"errors"

	"statusflow/bizerror"
	"statusflow/domain"
)

type TransitionValidator struct {
	resolver WorkflowResolver
}

func NewTransitionValidator(resolver WorkflowResolver) *TransitionValidator {
	return &TransitionValidator{resolver: resolver}
}

// ApplyTransition moves it to target when the workflow of its entity type has an edge from the
// current status to target that actor may traverse. Items without status only accept initial
// edges. Nothing is persisted.
func (v *TransitionValidator) ApplyTransition(ctx context.Context, it domain.ProjectItem, target *domain.Status, actor domain.Actor) error {
	workflow, err := v.resolver.ResolveWorkflow(ctx, it.EntityType())
	if errors.Is(err, bizerror.ErrNoWorkflowConfigured) {
		return bizerror.ErrWorkflowNotApplicable
	}
	if err != nil {
		return err
	}

	current := it.CurrentStatus()
	if target == nil {
		return &bizerror.ErrIllegalTransition{From: domain.StatusName(current), WorkflowID: workflow.ID}
	}
	allowed, err := v.resolver.ResolveAllowedTransitions(ctx, workflow, current, actor.Roles)
	if err != nil {
		return err
	}
	for idx := range allowed {
		if allowed[idx].ID == target.ID {
			it.SetStatus(&allowed[idx])
			return nil
		}
	}
	return &bizerror.ErrIllegalTransition{From: domain.StatusName(current), To: target.Name, WorkflowID: workflow.ID}
}

// AvailableStatuses lists the statuses actor may move it to. Items without workflow have none.
func (v *TransitionValidator) AvailableStatuses(ctx context.Context, it domain.ProjectItem, actor domain.Actor) ([]domain.Status, error) {
	workflow, err := v.resolver.ResolveWorkflow(ctx, it.EntityType())
	if errors.Is(err, bizerror.ErrNoWorkflowConfigured) {
		return []domain.Status{}, nil
	}
	if err != nil {
		return nil, err
	}
	return v.resolver.ResolveAllowedTransitions(ctx, workflow, it.CurrentStatus(), actor.Roles)
}
