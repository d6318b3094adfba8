package testinfra

import (
	"context"
	"statusflow/authority"
	"statusflow/session"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// BuildSession builds a session from permissions like "manager_<projectId>". Project role grants
// are given as "role:<projectId>:<roleId>".
func BuildSession(uid types.ID, perms ...string) *session.Session {
	s := &session.Session{
		Context:  context.Background(),
		Token:    "token-" + uid.String(),
		Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
	}
	for _, perm := range perms {
		if strings.HasPrefix(perm, "role:") {
			parts := strings.Split(perm, ":")
			if len(parts) != 3 {
				continue
			}
			projectId, err1 := types.ParseID(parts[1])
			roleId, err2 := types.ParseID(parts[2])
			if err1 != nil || err2 != nil {
				continue
			}
			s.ProjectRoles = append(s.ProjectRoles, authority.ProjectRole{ProjectID: projectId, RoleID: roleId})
			continue
		}
		s.Perms = append(s.Perms, perm)
	}
	return s
}

func RoleGrant(projectId, roleId types.ID) string {
	return "role:" + projectId.String() + ":" + roleId.String()
}
