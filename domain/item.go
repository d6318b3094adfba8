package domain

import (
	"github.com/fundwit/go-commons/types"
)

// ProjectItem is the capability every status-tracked item kind implements.
type ProjectItem interface {
	ItemKind() string
	EntityType() *EntityType
	SetEntityType(t *EntityType)
	CurrentStatus() *Status
	SetStatus(s *Status)
}

// Actor is the caller of a transition together with the roles held in the item's project.
type Actor struct {
	ID    types.ID   `json:"id"`
	Name  string     `json:"name"`
	Roles []types.ID `json:"roles"`
}
