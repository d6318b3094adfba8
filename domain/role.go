package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// Role is a permission group inside a project. Names are unique within a project.
type Role struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name      string   `json:"name" gorm:"unique_index:uni_role_project_name;not null"`
	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_role_project_name;not null"`

	CreateTime time.Time `json:"createTime"`
}

type RoleCreation struct {
	Name      string   `json:"name" validate:"required,lte=100"`
	ProjectID types.ID `json:"projectId" validate:"required"`
}
