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

const DefaultEntityTypeName = "Default"

func (m *WorkflowManager) CreateEntityType(ctx context.Context, c *domain.EntityTypeCreation, sec *session.Session) (*domain.EntityType, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if !sec.Perms.CanManageCompany(c.CompanyID) {
		return nil, bizerror.ErrForbidden
	}
	var created *domain.EntityType
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		t, err := m.createEntityType(tx, c)
		created = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (m *WorkflowManager) createEntityType(tx *gorm.DB, c *domain.EntityTypeCreation) (*domain.EntityType, error) {
	existed, err := exists(tx, &domain.EntityType{}, "company_id = ? AND kind = ? AND name = ?", c.CompanyID, c.Kind, c.Name)
	if err != nil {
		return nil, err
	}
	if existed {
		return nil, bizerror.ErrEntityTypeExisted
	}
	if c.WorkflowID != 0 {
		if err := checkAssignable(tx, c.WorkflowID, c.CompanyID); err != nil {
			return nil, err
		}
	}
	t := domain.EntityType{ID: m.nextID(), Name: c.Name, Kind: c.Kind, CompanyID: c.CompanyID,
		WorkflowID: c.WorkflowID, Active: true, CreateTime: time.Now().Round(time.Millisecond)}
	if err := tx.Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *WorkflowManager) QueryEntityTypes(ctx context.Context, companyID types.ID, kind string, sec *session.Session) ([]domain.EntityType, error) {
	result := []domain.EntityType{}
	db := m.ds.GormDB(ctx)
	if err := namespace.CheckCompanyViewPerm(db, companyID, sec); err != nil {
		return nil, err
	}
	q := db.Where("company_id = ?", companyID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("id ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// AssignWorkflow binds a workflow to an entity type. The workflow must be active and owned by a
// project of the type's company. A zero workflowID detaches the workflow.
func (m *WorkflowManager) AssignWorkflow(ctx context.Context, typeID, workflowID types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		t := domain.EntityType{}
		if err := tx.Where("id = ?", typeID).First(&t).Error; err != nil {
			return err
		}
		if !sec.Perms.CanManageCompany(t.CompanyID) {
			return bizerror.ErrForbidden
		}
		if workflowID != 0 {
			if err := checkAssignable(tx, workflowID, t.CompanyID); err != nil {
				return err
			}
		}
		return tx.Model(&domain.EntityType{}).Where("id = ?", typeID).Update("workflow_id", workflowID).Error
	})
}

func checkAssignable(tx *gorm.DB, workflowID, companyID types.ID) error {
	wf := domain.Workflow{}
	if err := tx.Where("id = ?", workflowID).First(&wf).Error; err != nil {
		return err
	}
	project, err := namespace.FindProject(tx, wf.ProjectID)
	if err != nil {
		return err
	}
	if project.CompanyID != companyID {
		return bizerror.ErrCrossCompanyReference
	}
	if !wf.Active {
		return bizerror.ErrWorkflowInactive
	}
	return nil
}

// DefaultEntityType returns the first active type of kind in the company, minting one from the
// registered factory of kind when none exists. It joins the transaction carried by ctx.
func (m *WorkflowManager) DefaultEntityType(ctx context.Context, kind string, companyID types.ID) (*domain.EntityType, error) {
	var result *domain.EntityType
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var found []domain.EntityType
		if err := tx.Where("company_id = ? AND kind = ? AND active = ?", companyID, kind, true).
			Order("id ASC").Limit(1).Find(&found).Error; err != nil {
			return err
		}
		if len(found) > 0 {
			result = &found[0]
			return nil
		}

		c := domain.EntityTypeCreation{Name: DefaultEntityTypeName, Kind: kind, CompanyID: companyID}
		if factory, ok := m.defaultTypeFactories[kind]; ok {
			c = factory(companyID)
			c.Kind, c.CompanyID = kind, companyID
		}
		if err := domain.Validate(&c); err != nil {
			return err
		}
		t, err := m.createEntityType(tx, &c)
		if err != nil {
			return err
		}
		m.invalidate()
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
