package flow

import (
	"context"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/namespace"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func (m *WorkflowManager) CreateRole(ctx context.Context, c *domain.RoleCreation, sec *session.Session) (*domain.Role, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	r := domain.Role{ID: m.nextID(), Name: c.Name, ProjectID: c.ProjectID, CreateTime: time.Now().Round(time.Millisecond)}
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := namespace.CheckProjectManagePerm(tx, c.ProjectID, sec); err != nil {
			return err
		}
		existed, err := exists(tx, &domain.Role{}, "project_id = ? AND name = ?", c.ProjectID, c.Name)
		if err != nil {
			return err
		}
		if existed {
			return bizerror.ErrRoleExisted
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (m *WorkflowManager) QueryRoles(ctx context.Context, projectID types.ID, sec *session.Session) ([]domain.Role, error) {
	roles := []domain.Role{}
	db := m.ds.GormDB(ctx)
	if _, err := namespace.CheckProjectViewPerm(db, projectID, sec); err != nil {
		return nil, err
	}
	if err := db.Where("project_id = ?", projectID).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// DeleteRole refuses to delete roles still authorizing a transition or granted to members.
func (m *WorkflowManager) DeleteRole(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		r := domain.Role{}
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			return hideMissing(err, sec)
		}
		if _, err := namespace.CheckProjectManagePerm(tx, r.ProjectID, sec); err != nil {
			return err
		}

		referenced, err := exists(tx, &domain.TransitionRole{}, "role_id = ?", id)
		if err != nil {
			return err
		}
		if referenced {
			return bizerror.ErrRoleIsReferenced
		}
		for _, check := range m.roleReferenceCheckers {
			if err := check(ctx, tx, r); err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&domain.Role{}).Error
	})
}
