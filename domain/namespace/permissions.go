package namespace

import (
	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func FindProject(tx *gorm.DB, projectID types.ID) (*domain.Project, error) {
	project := domain.Project{}
	if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// CheckProjectManagePerm allows project managers and administrators of the owning company.
func CheckProjectManagePerm(tx *gorm.DB, projectID types.ID, sec *session.Session) (*domain.Project, error) {
	project, err := FindProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	if !sec.Perms.CanManageProject(project.ID) && !sec.Perms.CanManageCompany(project.CompanyID) {
		return nil, bizerror.ErrForbidden
	}
	return project, nil
}

// CheckProjectViewPerm also admits holders of a workflow role in the project.
func CheckProjectViewPerm(tx *gorm.DB, projectID types.ID, sec *session.Session) (*domain.Project, error) {
	project, err := FindProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	if !sec.Perms.CanViewProject(project.ID) && !sec.ProjectRoles.HasProject(project.ID) &&
		!sec.Perms.CanManageCompany(project.CompanyID) {
		return nil, bizerror.ErrForbidden
	}
	return project, nil
}

// CheckCompanyViewPerm allows company administrators, global viewers and callers that can see at
// least one project of the company.
func CheckCompanyViewPerm(tx *gorm.DB, companyID types.ID, sec *session.Session) error {
	if sec.Perms.HasGlobalViewRole() || sec.Perms.CanManageCompany(companyID) {
		return nil
	}
	visible := sec.VisibleProjects()
	if len(visible) == 0 {
		return bizerror.ErrForbidden
	}
	var c int
	if err := tx.Model(&domain.Project{}).Where("company_id = ? AND id IN (?)", companyID, visible).Count(&c).Error; err != nil {
		return err
	}
	if c == 0 {
		return bizerror.ErrForbidden
	}
	return nil
}
