package namespace

import (
	"context"
	"time"

	"statusflow/authority"
	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// GrantMemberRole grants a role of the project to a member. Granting twice is a no-op.
func (m *NamespaceManager) GrantMemberRole(ctx context.Context, c *domain.ProjectMemberCreation, sec *session.Session) error {
	if err := domain.Validate(c); err != nil {
		return err
	}
	return m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := CheckProjectManagePerm(tx, c.ProjectID, sec); err != nil {
			return err
		}
		role := domain.Role{}
		if err := tx.Where("id = ?", c.RoleID).First(&role).Error; err != nil {
			return err
		}
		if role.ProjectID != c.ProjectID {
			return bizerror.ErrCrossProjectRole
		}

		var count int
		if err := tx.Model(&domain.ProjectMember{}).Where("project_id = ? AND member_id = ? AND role_id = ?",
			c.ProjectID, c.MemberID, c.RoleID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		record := domain.ProjectMember{ProjectID: c.ProjectID, MemberID: c.MemberID, RoleID: c.RoleID,
			CreateTime: time.Now().Round(time.Millisecond)}
		return tx.Create(&record).Error
	})
}

func (m *NamespaceManager) RevokeMemberRole(ctx context.Context, d *domain.ProjectMemberCreation, sec *session.Session) error {
	return m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := CheckProjectManagePerm(tx, d.ProjectID, sec); err != nil {
			return err
		}
		return tx.Where("project_id = ? AND member_id = ? AND role_id = ?", d.ProjectID, d.MemberID, d.RoleID).
			Delete(&domain.ProjectMember{}).Error
	})
}

func (m *NamespaceManager) QueryProjectMembers(ctx context.Context, projectID types.ID, sec *session.Session) ([]domain.ProjectMember, error) {
	db := m.ds.GormDB(ctx)
	if _, err := CheckProjectViewPerm(db, projectID, sec); err != nil {
		return nil, err
	}
	members := []domain.ProjectMember{}
	if err := db.Where("project_id = ?", projectID).Order("member_id ASC, role_id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// LoadProjectRoles returns every workflow role granted to a member, the shape sessions carry.
func (m *NamespaceManager) LoadProjectRoles(ctx context.Context, memberID types.ID) (authority.ProjectRoles, error) {
	var records []domain.ProjectMember
	if err := m.ds.GormDB(ctx).Where("member_id = ?", memberID).Order("project_id ASC, role_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	roles := authority.ProjectRoles{}
	for _, r := range records {
		roles = append(roles, authority.ProjectRole{ProjectID: r.ProjectID, RoleID: r.RoleID})
	}
	return roles, nil
}

// CheckRoleReference refuses deleting roles still granted to members.
func CheckRoleReference(ctx context.Context, tx *gorm.DB, role domain.Role) error {
	var count int
	if err := tx.Model(&domain.ProjectMember{}).Where("role_id = ?", role.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return bizerror.ErrRoleIsReferenced
	}
	return nil
}
