package session

import (
	"context"
	"statusflow/authority"
	"statusflow/domain"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Context context.Context `json:"-"`

	Token        string                 `json:"token"`
	Identity     Identity               `json:"identity"`
	Perms        authority.Permissions  `json:"perms"`
	ProjectRoles authority.ProjectRoles `json:"projectRoles"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

// Ctx never returns nil.
func (s *Session) Ctx() context.Context {
	if s == nil || s.Context == nil {
		return context.Background()
	}
	return s.Context
}

func (s *Session) Clone() Session {
	c := *s
	c.Perms = append(authority.Permissions{}, s.Perms...)
	c.ProjectRoles = append(authority.ProjectRoles{}, s.ProjectRoles...)
	return c
}

// WithContext returns a copy bound to ctx.
func (s *Session) WithContext(ctx context.Context) *Session {
	c := s.Clone()
	c.Context = ctx
	return &c
}

// ActorIn builds the transition actor holding the workflow roles granted in projectID.
func (s *Session) ActorIn(projectID types.ID) domain.Actor {
	return domain.Actor{ID: s.Identity.ID, Name: s.Identity.Name, Roles: s.ProjectRoles.RoleIDs(projectID)}
}

func (s *Session) VisibleProjects() []types.ID {
	ids := s.Perms.VisibleProjects()
	for _, pr := range s.ProjectRoles {
		found := false
		for _, id := range ids {
			if id == pr.ProjectID {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, pr.ProjectID)
		}
	}
	return ids
}

// System builds the session of administrative tooling, holding the system administrator permission.
func System(ctx context.Context) *Session {
	return &Session{
		Context:     ctx,
		Identity:    Identity{ID: 0, Name: "system", Nickname: "system"},
		Perms:       authority.Permissions{authority.SystemAdmin},
		SigningTime: time.Now(),
	}
}
