package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

const (
	SystemAdmin        = "system:admin"
	CompanyAdminPrefix = "companyadmin_"
	ProjectManager     = "manager"
	ProjectMember      = "member"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasGlobalViewRole() bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), "system:") {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRoleSuffix(suffix string) bool {
	for _, v := range c {
		if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (c Permissions) IsSystemAdmin() bool {
	return c.HasRole(SystemAdmin)
}

func (c Permissions) CanManageCompany(companyID types.ID) bool {
	return c.IsSystemAdmin() || c.HasRole(CompanyAdminPrefix+companyID.String())
}

func (c Permissions) CanManageProject(projectID types.ID) bool {
	return c.IsSystemAdmin() || c.HasRole(ProjectManager+"_"+projectID.String())
}

func (c Permissions) CanViewProject(projectID types.ID) bool {
	return c.HasGlobalViewRole() || c.HasRoleSuffix("_"+projectID.String())
}

// VisibleProjects parses project ids from "<role>_<projectId>" permissions.
func (c Permissions) VisibleProjects() []types.ID {
	projectIds := []types.ID{}
	for _, v := range c {
		pairs := strings.Split(v, "_")
		if len(pairs) == 2 && (pairs[0] == ProjectManager || pairs[0] == ProjectMember) {
			id, err := types.ParseID(pairs[1])
			if err != nil {
				continue
			}
			projectIds = append(projectIds, id)
		}
	}
	return projectIds
}

// ProjectRole is a workflow role held by the session owner in a project.
type ProjectRole struct {
	ProjectID types.ID `json:"projectId"`
	RoleID    types.ID `json:"roleId"`
}

type ProjectRoles []ProjectRole

func (c ProjectRoles) HasProject(projectId types.ID) bool {
	for _, v := range c {
		if v.ProjectID == projectId {
			return true
		}
	}
	return false
}

func (c ProjectRoles) RoleIDs(projectId types.ID) []types.ID {
	r := []types.ID{}
	for _, v := range c {
		if v.ProjectID == projectId {
			r = append(r, v.RoleID)
		}
	}
	return r
}
