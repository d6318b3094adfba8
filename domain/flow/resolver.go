package flow

import (
	"context"
	"errors"
	"sort"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// Resolver answers workflow questions for item types. It never writes.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveWorkflow returns the workflow of entityType with its transition table.
// A nil type, a type without workflow and a dangling workflow reference all yield
// bizerror.ErrNoWorkflowConfigured.
func (r *Resolver) ResolveWorkflow(ctx context.Context, entityType *domain.EntityType) (*domain.WorkflowDetail, error) {
	if !entityType.HasWorkflow() {
		return nil, bizerror.ErrNoWorkflowConfigured
	}
	wf, err := r.store.LoadWorkflow(ctx, entityType.WorkflowID)
	if err != nil {
		if errors.Is(err, bizerror.ErrNotFound) {
			logrus.WithFields(logrus.Fields{"entityTypeId": entityType.ID, "workflowId": entityType.WorkflowID,
				"audience": bizerror.AudienceAdministrator}).Warn("entity type references a missing workflow")
			return nil, bizerror.ErrNoWorkflowConfigured
		}
		return nil, err
	}
	transitions, err := r.store.LoadTransitions(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	return &domain.WorkflowDetail{Workflow: *wf, StateMachine: *state.NewStateMachine(transitions)}, nil
}

// ResolveInitialStatus returns the target of the initial transition. When several exist the
// lowest transition id wins and a configuration warning is logged.
func (r *Resolver) ResolveInitialStatus(ctx context.Context, workflow *domain.WorkflowDetail) (*domain.Status, error) {
	initials := workflow.StateMachine.InitialTransitions()
	if len(initials) == 0 {
		return nil, &bizerror.ErrNoInitialStatus{WorkflowID: workflow.ID, WorkflowName: workflow.Name}
	}
	if len(initials) > 1 {
		candidates := make([]types.ID, 0, len(initials))
		for _, t := range initials {
			candidates = append(candidates, t.ID)
		}
		logrus.WithFields(logrus.Fields{"workflowId": workflow.ID, "candidates": candidates, "chosen": initials[0].ID,
			"audience": bizerror.AudienceAdministrator}).Warn("workflow has multiple initial transitions")
	}
	return r.store.LoadStatus(ctx, initials[0].To)
}

// ResolveAllowedTransitions returns the distinct target statuses reachable from current by an actor
// holding roles, ordered by status sort order and then by transition id. A nil current answers
// the initial transitions.
func (r *Resolver) ResolveAllowedTransitions(ctx context.Context, workflow *domain.WorkflowDetail,
	current *domain.Status, roles []types.ID) ([]domain.Status, error) {

	var from types.ID
	if current != nil {
		from = current.ID
	}
	firstEdge := map[types.ID]types.ID{}
	targets := []types.ID{}
	for _, t := range workflow.StateMachine.AvailableTransitions(from, roles) {
		edge, seen := firstEdge[t.To]
		if !seen {
			targets = append(targets, t.To)
		}
		if !seen || t.ID < edge {
			firstEdge[t.To] = t.ID
		}
	}
	statuses, err := r.store.LoadStatuses(ctx, targets)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].SortOrder != statuses[j].SortOrder {
			return statuses[i].SortOrder < statuses[j].SortOrder
		}
		return firstEdge[statuses[i].ID] < firstEdge[statuses[j].ID]
	})
	return statuses, nil
}

// LoadEntityType exposes the type lookup of the underlying store.
func (r *Resolver) LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error) {
	return r.store.LoadEntityType(ctx, id)
}

func (r *Resolver) LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error) {
	return r.store.LoadStatus(ctx, id)
}
