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

func (m *WorkflowManager) CreateStatus(ctx context.Context, c *domain.StatusCreation, sec *session.Session) (*domain.Status, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if !sec.Perms.CanManageCompany(c.CompanyID) {
		return nil, bizerror.ErrForbidden
	}

	s := domain.Status{ID: m.nextID(), Name: c.Name, CompanyID: c.CompanyID, Color: c.Color, Icon: c.Icon,
		SortOrder: c.SortOrder, CreateTime: time.Now().Round(time.Millisecond)}
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existed, err := exists(tx, &domain.Status{}, "company_id = ? AND name = ?", c.CompanyID, c.Name)
		if err != nil {
			return err
		}
		if existed {
			return bizerror.ErrStatusExisted
		}
		return tx.Create(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *WorkflowManager) QueryStatuses(ctx context.Context, q *domain.StatusQuery, sec *session.Session) ([]domain.Status, error) {
	if err := domain.Validate(q); err != nil {
		return nil, err
	}
	statuses := []domain.Status{}
	db := m.ds.GormDB(ctx)
	if err := namespace.CheckCompanyViewPerm(db, q.CompanyID, sec); err != nil {
		return nil, err
	}
	db = db.Where("company_id = ?", q.CompanyID)
	if q.Name != "" {
		db = db.Where("name LIKE ?", "%"+q.Name+"%")
	}
	if err := db.Order("sort_order ASC, id ASC").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// DeleteStatus refuses to delete statuses referenced by transitions or by any registered checker.
func (m *WorkflowManager) DeleteStatus(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		s := domain.Status{}
		if err := tx.Where("id = ?", id).First(&s).Error; err != nil {
			return hideMissing(err, sec)
		}
		if !sec.Perms.CanManageCompany(s.CompanyID) {
			return bizerror.ErrForbidden
		}

		referenced, err := exists(tx, &domain.WorkflowTransition{}, "from_status_id = ? OR to_status_id = ?", id, id)
		if err != nil {
			return err
		}
		if referenced {
			return bizerror.ErrStatusIsReferenced
		}
		for _, check := range m.statusReferenceCheckers {
			if err := check(ctx, tx, s); err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).Delete(&domain.Status{}).Error
	})
}
