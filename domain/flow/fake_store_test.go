package flow_test

import (
	"context"
	"fmt"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
)

// memoryStore is an in-memory flow.Store counting its loads.
type memoryStore struct {
	workflows   map[types.ID]domain.Workflow
	transitions map[types.ID][]state.Transition
	types       map[types.ID]domain.EntityType
	statuses    map[types.ID]domain.Status

	loads int
	err   error

	// afterRead runs once a load has read its value and before it returns
	afterRead func()
}

func (s *memoryStore) readDone() {
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		workflows:   map[types.ID]domain.Workflow{},
		transitions: map[types.ID][]state.Transition{},
		types:       map[types.ID]domain.EntityType{},
		statuses:    map[types.ID]domain.Status{},
	}
}

func (s *memoryStore) LoadWorkflow(ctx context.Context, id types.ID) (*domain.Workflow, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	wf, found := s.workflows[id]
	if !found {
		return nil, fmt.Errorf("workflow %s: %w", id, bizerror.ErrNotFound)
	}
	s.readDone()
	return &wf, nil
}

func (s *memoryStore) LoadTransitions(ctx context.Context, workflowID types.ID) ([]state.Transition, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	transitions := append([]state.Transition{}, s.transitions[workflowID]...)
	s.readDone()
	return transitions, nil
}

func (s *memoryStore) LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error) {
	s.loads++
	t, found := s.types[id]
	if !found {
		return nil, fmt.Errorf("entity type %s: %w", id, bizerror.ErrNotFound)
	}
	return &t, nil
}

func (s *memoryStore) LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error) {
	s.loads++
	st, found := s.statuses[id]
	if !found {
		return nil, fmt.Errorf("status %s: %w", id, bizerror.ErrNotFound)
	}
	return &st, nil
}

func (s *memoryStore) LoadStatuses(ctx context.Context, ids []types.ID) ([]domain.Status, error) {
	s.loads++
	r := []domain.Status{}
	for _, id := range ids {
		st, found := s.statuses[id]
		if !found {
			return nil, fmt.Errorf("status %s: %w", id, bizerror.ErrNotFound)
		}
		r = append(r, st)
	}
	s.readDone()
	return r, nil
}
