package namespace

import (
	"context"
	"strings"
	"time"

	"statusflow/authority"
	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/idgen"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// NamespaceManager manages companies, projects and the workflow roles granted to project members.
type NamespaceManager struct {
	ds       *persistence.DataSourceManager
	idWorker *sonyflake.Sonyflake
}

func NewNamespaceManager(ds *persistence.DataSourceManager) *NamespaceManager {
	return &NamespaceManager{ds: ds, idWorker: idgen.NewWorker()}
}

func (m *NamespaceManager) CreateCompany(ctx context.Context, c *domain.CompanyCreation, sec *session.Session) (*domain.Company, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if !sec.Perms.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}
	company := domain.Company{ID: idgen.NextID(m.idWorker), Name: c.Name, CreateTime: time.Now().Round(time.Millisecond)}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var c int
		if err := tx.Model(&domain.Company{}).Where("name = ?", company.Name).Count(&c).Error; err != nil {
			return err
		}
		if c > 0 {
			return bizerror.ErrCompanyExisted
		}
		return tx.Create(&company).Error
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (m *NamespaceManager) QueryCompanies(ctx context.Context, sec *session.Session) ([]domain.Company, error) {
	companies := []domain.Company{}
	q := m.ds.GormDB(ctx)
	if !sec.Perms.HasGlobalViewRole() {
		ids := companyIDsOf(sec.Perms)
		if len(ids) == 0 {
			return companies, nil
		}
		q = q.Where("id IN (?)", ids)
	}
	if err := q.Order("id ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// CreateProject creates a project in a company. The creator is recorded but no workflow role is
// granted, managers are designated by permissions.
func (m *NamespaceManager) CreateProject(ctx context.Context, c *domain.ProjectCreation, sec *session.Session) (*domain.Project, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if !sec.Perms.CanManageCompany(c.CompanyID) {
		return nil, bizerror.ErrForbidden
	}
	project := domain.Project{ID: idgen.NextID(m.idWorker), Name: c.Name, CompanyID: c.CompanyID,
		CreateTime: time.Now().Round(time.Millisecond), Creator: sec.Identity.ID}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.CompanyID).First(&domain.Company{}).Error; err != nil {
			return err
		}
		var count int
		if err := tx.Model(&domain.Project{}).Where("company_id = ? AND name = ?", c.CompanyID, c.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrProjectExisted
		}
		return tx.Create(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (m *NamespaceManager) DetailProject(ctx context.Context, id types.ID, sec *session.Session) (*domain.Project, error) {
	return CheckProjectViewPerm(m.ds.GormDB(ctx), id, sec)
}

// QueryProjects lists the projects of a company visible to the caller.
func (m *NamespaceManager) QueryProjects(ctx context.Context, companyID types.ID, sec *session.Session) ([]domain.Project, error) {
	projects := []domain.Project{}
	q := m.ds.GormDB(ctx).Where("company_id = ?", companyID)
	if !sec.Perms.HasGlobalViewRole() && !sec.Perms.CanManageCompany(companyID) {
		visible := sec.VisibleProjects()
		if len(visible) == 0 {
			return projects, nil
		}
		q = q.Where("id IN (?)", visible)
	}
	if err := q.Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// QueryProjectNames maps project ids to names, unknown ids are left out.
func (m *NamespaceManager) QueryProjectNames(ctx context.Context, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	if len(ids) == 0 {
		return result, nil
	}
	var records []domain.Project
	if err := m.ds.GormDB(ctx).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}

func companyIDsOf(perms authority.Permissions) []types.ID {
	ids := []types.ID{}
	for _, p := range perms {
		if !strings.HasPrefix(p, authority.CompanyAdminPrefix) {
			continue
		}
		id, err := types.ParseID(strings.TrimPrefix(p, authority.CompanyAdminPrefix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
