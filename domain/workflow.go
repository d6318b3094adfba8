package domain

import (
	"time"

	"statusflow/domain/state"

	"github.com/fundwit/go-commons/types"
)

type Workflow struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name" gorm:"unique_index:uni_workflow_project_name;not null"`

	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_workflow_project_name;not null"`
	Active    bool     `json:"active"`

	CreateTime time.Time `json:"createTime"`
}

// WorkflowTransition is a directed edge of a workflow. FromStatusID is zero for
// initial edges, which keeps (workflow, from, to) enforceable as a unique index.
type WorkflowTransition struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	WorkflowID   types.ID `json:"workflowId" gorm:"unique_index:uni_workflow_transition;not null"`
	FromStatusID types.ID `json:"fromStatusId" gorm:"unique_index:uni_workflow_transition;not null"`
	ToStatusID   types.ID `json:"toStatusId" gorm:"unique_index:uni_workflow_transition;not null"`
	Initial      bool     `json:"initial"`

	CreateTime time.Time `json:"createTime"`
}

type TransitionRole struct {
	TransitionID types.ID `json:"transitionId" gorm:"primary_key;auto_increment:false"`
	RoleID       types.ID `json:"roleId" gorm:"primary_key;auto_increment:false"`
}

// WorkflowDetail is a workflow together with its transition table.
type WorkflowDetail struct {
	Workflow

	StateMachine state.StateMachine `json:"stateMachine"`
}

type WorkflowCreation struct {
	Name      string   `json:"name" validate:"required,lte=100"`
	ProjectID types.ID `json:"projectId" validate:"required"`
}

type WorkflowQuery struct {
	ProjectID types.ID `json:"projectId"`
	Name      string   `json:"name"`
}

type WorkflowBaseUpdation struct {
	Name string `json:"name" validate:"required,lte=100"`
}

type TransitionCreation struct {
	WorkflowID   types.ID   `json:"workflowId" validate:"required"`
	FromStatusID types.ID   `json:"fromStatusId"`
	ToStatusID   types.ID   `json:"toStatusId" validate:"required"`
	Initial      bool       `json:"initial"`
	RoleIDs      []types.ID `json:"roleIds"`
}

// TransitionDetail resolves the statuses and roles of a transition for display.
type TransitionDetail struct {
	WorkflowTransition

	FromStatus *Status `json:"fromStatus"`
	ToStatus   Status  `json:"toStatus"`
	Roles      []Role  `json:"roles"`
}
