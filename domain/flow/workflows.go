package flow

import (
	"context"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/namespace"
	"statusflow/domain/state"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func (m *WorkflowManager) CreateWorkflow(ctx context.Context, c *domain.WorkflowCreation, sec *session.Session) (*domain.Workflow, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	wf := domain.Workflow{ID: m.nextID(), Name: c.Name, ProjectID: c.ProjectID, CreateTime: time.Now().Round(time.Millisecond)}
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := namespace.CheckProjectManagePerm(tx, c.ProjectID, sec); err != nil {
			return err
		}
		existed, err := exists(tx, &domain.Workflow{}, "project_id = ? AND name = ?", c.ProjectID, c.Name)
		if err != nil {
			return err
		}
		if existed {
			return bizerror.ErrWorkflowExisted
		}
		return tx.Create(&wf).Error
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (m *WorkflowManager) DetailWorkflow(ctx context.Context, id types.ID, sec *session.Session) (*domain.WorkflowDetail, error) {
	detail := domain.WorkflowDetail{}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&detail.Workflow).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectViewPerm(tx, detail.ProjectID, sec); err != nil {
			return err
		}
		transitions, err := NewGormStore(m.ds).LoadTransitions(ctx, id)
		if err != nil {
			return err
		}
		detail.StateMachine = *state.NewStateMachine(transitions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (m *WorkflowManager) QueryWorkflows(ctx context.Context, query *domain.WorkflowQuery, sec *session.Session) ([]domain.Workflow, error) {
	workflows := []domain.Workflow{}
	q := m.ds.GormDB(ctx).Model(&domain.Workflow{})
	if query.ProjectID != 0 {
		q = q.Where("project_id = ?", query.ProjectID)
	}
	if query.Name != "" {
		q = q.Where("name LIKE ?", "%"+query.Name+"%")
	}
	if !sec.Perms.HasGlobalViewRole() {
		visibleProjects := sec.VisibleProjects()
		if len(visibleProjects) == 0 {
			return workflows, nil
		}
		q = q.Where("project_id IN (?)", visibleProjects)
	}
	if err := q.Order("id ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

func (m *WorkflowManager) UpdateWorkflowBase(ctx context.Context, id types.ID, c *domain.WorkflowBaseUpdation, sec *session.Session) (*domain.Workflow, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	wf := domain.Workflow{}
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		existed, err := exists(tx, &domain.Workflow{}, "project_id = ? AND name = ? AND id <> ?", wf.ProjectID, c.Name, id)
		if err != nil {
			return err
		}
		if existed {
			return bizerror.ErrWorkflowExisted
		}
		if err := tx.Model(&domain.Workflow{}).Where("id = ?", id).Update("name", c.Name).Error; err != nil {
			return err
		}
		// query again
		return tx.Where("id = ?", id).First(&wf).Error
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// DeleteWorkflow removes a workflow with its transitions. Workflows assigned to an entity type are kept.
func (m *WorkflowManager) DeleteWorkflow(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		referenced, err := exists(tx, &domain.EntityType{}, "workflow_id = ?", id)
		if err != nil {
			return err
		}
		if referenced {
			return bizerror.ErrWorkflowIsReferenced
		}

		var transitionIDs []types.ID
		if err := tx.Model(&domain.WorkflowTransition{}).Where("workflow_id = ?", id).Pluck("id", &transitionIDs).Error; err != nil {
			return err
		}
		if len(transitionIDs) > 0 {
			if err := tx.Where("transition_id IN (?)", transitionIDs).Delete(&domain.TransitionRole{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("workflow_id = ?", id).Delete(&domain.WorkflowTransition{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Workflow{}).Error
	})
}

// ActivateWorkflow refuses workflows whose check reports errors, e.g. no initial transition.
func (m *WorkflowManager) ActivateWorkflow(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		issues, err := m.checkWorkflow(ctx, &wf)
		if err != nil {
			return err
		}
		if err := FirstError(issues); err != nil {
			return err
		}
		return tx.Model(&domain.Workflow{}).Where("id = ?", id).Update("active", true).Error
	})
}

// DeactivateWorkflow keeps existing type assignments resolving but blocks new ones.
func (m *WorkflowManager) DeactivateWorkflow(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		return tx.Model(&domain.Workflow{}).Where("id = ?", id).Update("active", false).Error
	})
}
