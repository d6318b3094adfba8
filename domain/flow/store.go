package flow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/state"
	"statusflow/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// Store is the read side the engine consumes. Implementations return up-to-date data and
// report missing records with bizerror.ErrNotFound.
type Store interface {
	LoadWorkflow(ctx context.Context, id types.ID) (*domain.Workflow, error)
	LoadTransitions(ctx context.Context, workflowID types.ID) ([]state.Transition, error)
	LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error)
	LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error)
	LoadStatuses(ctx context.Context, ids []types.ID) ([]domain.Status, error)
}

type GormStore struct {
	ds *persistence.DataSourceManager
}

func NewGormStore(ds *persistence.DataSourceManager) *GormStore {
	return &GormStore{ds: ds}
}

func notFound(what string, id types.ID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, bizerror.ErrNotFound)
	}
	return err
}

func (s *GormStore) LoadWorkflow(ctx context.Context, id types.ID) (*domain.Workflow, error) {
	wf := domain.Workflow{}
	if err := s.ds.GormDB(ctx).Where("id = ?", id).First(&wf).Error; err != nil {
		return nil, notFound("workflow", id, err)
	}
	return &wf, nil
}

// LoadTransitions returns the transitions of a workflow ordered by id, each with its role set.
func (s *GormStore) LoadTransitions(ctx context.Context, workflowID types.ID) ([]state.Transition, error) {
	db := s.ds.GormDB(ctx)
	var records []domain.WorkflowTransition
	if err := db.Where("workflow_id = ?", workflowID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	transitions := []state.Transition{}
	if len(records) == 0 {
		return transitions, nil
	}

	ids := make([]types.ID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	var roleRecords []domain.TransitionRole
	if err := db.Where("transition_id IN (?)", ids).Find(&roleRecords).Error; err != nil {
		return nil, err
	}
	roles := map[types.ID][]types.ID{}
	for _, rr := range roleRecords {
		roles[rr.TransitionID] = append(roles[rr.TransitionID], rr.RoleID)
	}

	for _, r := range records {
		roleIDs := roles[r.ID]
		sort.Slice(roleIDs, func(i, j int) bool { return roleIDs[i] < roleIDs[j] })
		transitions = append(transitions, state.Transition{
			ID: r.ID, From: r.FromStatusID, To: r.ToStatusID, Initial: r.Initial, Roles: roleIDs,
		})
	}
	return transitions, nil
}

func (s *GormStore) LoadEntityType(ctx context.Context, id types.ID) (*domain.EntityType, error) {
	t := domain.EntityType{}
	if err := s.ds.GormDB(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound("entity type", id, err)
	}
	return &t, nil
}

func (s *GormStore) LoadStatus(ctx context.Context, id types.ID) (*domain.Status, error) {
	st := domain.Status{}
	if err := s.ds.GormDB(ctx).Where("id = ?", id).First(&st).Error; err != nil {
		return nil, notFound("status", id, err)
	}
	return &st, nil
}

// LoadStatuses returns the statuses in the order of ids, failing when any is missing.
func (s *GormStore) LoadStatuses(ctx context.Context, ids []types.ID) ([]domain.Status, error) {
	if len(ids) == 0 {
		return []domain.Status{}, nil
	}
	var records []domain.Status
	if err := s.ds.GormDB(ctx).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	byID := map[types.ID]domain.Status{}
	for _, r := range records {
		byID[r.ID] = r
	}
	result := make([]domain.Status, 0, len(ids))
	for _, id := range ids {
		st, found := byID[id]
		if !found {
			return nil, fmt.Errorf("status %s: %w", id, bizerror.ErrNotFound)
		}
		result = append(result, st)
	}
	return result, nil
}
