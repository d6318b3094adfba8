package item_test

import (
	"context"
	"errors"
	"fmt"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
)

type card struct {
	entityType *domain.EntityType
	status     *domain.Status
}

func (c *card) ItemKind() string { return "card" }
func (c *card) EntityType() *domain.EntityType { return c.entityType }
func (c *card) SetEntityType(t *domain.EntityType) { c.entityType = t }
func (c *card) CurrentStatus() *domain.Status { return c.status }
func (c *card) SetStatus(s *domain.Status) { c.status = s }

type store struct {
	workflows   map[types.ID]domain.Workflow
	transitions map[types.ID][]state.Transition
	statuses    map[types.ID]domain.Status
	broken      bool
}

var errStorage = errors.New("storage down")

func newStore() *store {
	return &store{
		workflows:   map[types.ID]domain.Workflow{},
		transitions: map[types.ID][]state.Transition{},
		statuses:    map[types.ID]domain.Status{},
	}
}

func (s *store) LoadWorkflow(ctx context.Context, id types.ID) (*domain.Workflow, error) {
	if s.broken {
		return nil, errStorage
	}
	wf, found := s.workflows[id]
	if !found {
		return nil, fmt.Errorf("workflow %s: %w", id, bizerror.ErrNotFound)
	}
	return &wf, nil
}

func (s *store) LoadTransitions(ctx context.Context, workflowID types.ID) ([]state.Transition, error) {
	return append([]state.Transition{}, s.transitions[workflowID]...), nil
}

func (s *store) LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error) {
	return nil, fmt.Errorf("entity type %s: %w", id, bizerror.ErrNotFound)
}

func (s *store) LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error) {
	st, found := s.statuses[id]
	if !found {
		return nil, fmt.Errorf("status %s: %w", id, bizerror.ErrNotFound)
	}
	return &st, nil
}

func (s *store) LoadStatuses(ctx context.Context, ids []types.ID) ([]domain.Status, error) {
	r := []domain.Status{}
	for _, id := range ids {
		st, err := s.LoadStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		r = append(r, *st)
	}
	return r, nil
}

type defaultTypes struct {
	entityType *domain.EntityType
	err        error
	calls      []string
}

func (d *defaultTypes) DefaultEntityType(ctx context.Context, kind string, companyID types.ID) (*domain.EntityType, error) {
	d.calls = append(d.calls, fmt.Sprintf("%s@%s", kind, companyID))
	return d.entityType, d.err
}

type recordingReporter struct {
	issues []error
}

func (r *recordingReporter) ReportConfigurationIssue(ctx context.Context, it domain.ProjectItem, err error) {
	r.issues = append(r.issues, err)
}
