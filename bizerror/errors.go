package bizerror

import (
	"errors"

	"github.com/fundwit/go-commons/types"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")

	ErrNoWorkflowConfigured   = errors.New("no workflow configured")
	ErrWorkflowNotApplicable  = errors.New("workflow not applicable")
	ErrNoInitialStatusDefined = errors.New("no initial status defined")
	ErrTransitionNotAllowed   = errors.New("transition not allowed")
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrMissingDefaultColumn   = errors.New("missing default column")
	ErrMultipleDefaultColumns = errors.New("multiple default columns")
	ErrStatusOverlap          = errors.New("status mapped to multiple columns")
	ErrDuplicateColumnName    = errors.New("duplicate column name")

	ErrStatusExisted     = errors.New("status existed")
	ErrRoleExisted       = errors.New("role existed")
	ErrWorkflowExisted   = errors.New("workflow existed")
	ErrEntityTypeExisted = errors.New("entity type existed")
	ErrTransitionExisted = errors.New("transition existed")
	ErrProjectExisted    = errors.New("project existed")
	ErrCompanyExisted    = errors.New("company existed")
	ErrBoardExisted      = errors.New("board existed")

	ErrStatusIsReferenced       = errors.New("status is referenced")
	ErrRoleIsReferenced         = errors.New("role is referenced")
	ErrWorkflowIsReferenced     = errors.New("workflow is referenced")
	ErrInvalidInitialTransition = errors.New("initial transition must start from no status")
	ErrCrossCompanyReference    = errors.New("referenced entity belongs to another company")
	ErrCrossProjectRole         = errors.New("role belongs to another project")
	ErrUnknownStatus            = errors.New("unknown status")
	ErrWorkflowInactive         = errors.New("workflow is inactive")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Audience: AudienceEndUser, Code: "common.bad_param", Message: message, Cause: e.Cause}
}

// ErrNoInitialStatus reports a workflow without any initial transition.
type ErrNoInitialStatus struct {
	WorkflowID   types.ID
	WorkflowName string
}

func (e *ErrNoInitialStatus) Error() string {
	return "workflow '" + e.WorkflowName + "' has no initial status"
}
func (e *ErrNoInitialStatus) Is(target error) bool {
	return target == ErrNoInitialStatusDefined
}
func (e *ErrNoInitialStatus) Respond() *BizErrorDetail {
	return &BizErrorDetail{Audience: AudienceAdministrator, Code: "workflow.no_initial_status", Message: e.Error(),
		Data: map[string]interface{}{"workflowId": e.WorkflowID, "workflowName": e.WorkflowName}}
}

// ErrIllegalTransition names the attempted statuses only. Missing edges and missing roles
// are reported identically.
type ErrIllegalTransition struct {
	From       string
	To         string
	WorkflowID types.ID
}

func (e *ErrIllegalTransition) Error() string {
	from := e.From
	if from == "" {
		from = "(none)"
	}
	return "transition from '" + from + "' to '" + e.To + "' is not allowed"
}
func (e *ErrIllegalTransition) Is(target error) bool {
	return target == ErrTransitionNotAllowed
}
func (e *ErrIllegalTransition) Respond() *BizErrorDetail {
	return &BizErrorDetail{Audience: AudienceEndUser, Code: "workflow.illegal_transition", Message: e.Error(),
		Data: map[string]interface{}{"from": e.From, "to": e.To}}
}
