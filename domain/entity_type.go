package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// EntityType classifies items of one kind inside a company and selects their workflow.
// A zero WorkflowID means status tracking does not apply.
type EntityType struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name      string   `json:"name" gorm:"unique_index:uni_entity_type_name;not null"`
	Kind      string   `json:"kind" gorm:"unique_index:uni_entity_type_name;not null"`
	CompanyID types.ID `json:"companyId" gorm:"unique_index:uni_entity_type_name;not null"`

	WorkflowID types.ID `json:"workflowId"`
	Active     bool     `json:"active"`

	CreateTime time.Time `json:"createTime"`
}

type EntityTypeCreation struct {
	Name       string   `json:"name" validate:"required,lte=100"`
	Kind       string   `json:"kind" validate:"required,lte=50"`
	CompanyID  types.ID `json:"companyId" validate:"required"`
	WorkflowID types.ID `json:"workflowId"`
}

func (t *EntityType) HasWorkflow() bool {
	return t != nil && t.WorkflowID != 0
}
