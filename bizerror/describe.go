package bizerror

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

type Audience string

const (
	// AudienceNone marks a legitimate branch rather than a failure.
	AudienceNone          Audience = "none"
	AudienceAdministrator Audience = "administrator"
	AudienceEndUser       Audience = "end_user"
	AudienceCaller        Audience = "caller"
)

type BizErrorDetail struct {
	Audience  Audience
	Code      string
	Message   string
	Retryable bool

	Data  interface{}
	Cause error
}

type sentinelDetail struct {
	err      error
	audience Audience
	code     string
}

var sentinels = []sentinelDetail{
	{ErrNoWorkflowConfigured, AudienceNone, "workflow.not_configured"},
	{ErrWorkflowNotApplicable, AudienceNone, "workflow.not_applicable"},

	{ErrNoInitialStatusDefined, AudienceAdministrator, "workflow.no_initial_status"},
	{ErrMissingDefaultColumn, AudienceAdministrator, "kanban.missing_default_column"},
	{ErrMultipleDefaultColumns, AudienceAdministrator, "kanban.multiple_default_columns"},
	{ErrStatusOverlap, AudienceAdministrator, "kanban.status_overlap"},
	{ErrDuplicateColumnName, AudienceAdministrator, "kanban.duplicate_column_name"},
	{ErrStatusExisted, AudienceAdministrator, "workflow.status_existed"},
	{ErrRoleExisted, AudienceAdministrator, "workflow.role_existed"},
	{ErrWorkflowExisted, AudienceAdministrator, "workflow.workflow_existed"},
	{ErrEntityTypeExisted, AudienceAdministrator, "workflow.entity_type_existed"},
	{ErrTransitionExisted, AudienceAdministrator, "workflow.transition_existed"},
	{ErrProjectExisted, AudienceAdministrator, "namespace.project_existed"},
	{ErrCompanyExisted, AudienceAdministrator, "namespace.company_existed"},
	{ErrBoardExisted, AudienceAdministrator, "kanban.board_existed"},
	{ErrStatusIsReferenced, AudienceAdministrator, "workflow.status_referenced"},
	{ErrRoleIsReferenced, AudienceAdministrator, "workflow.role_referenced"},
	{ErrWorkflowIsReferenced, AudienceAdministrator, "workflow.workflow_referenced"},
	{ErrInvalidInitialTransition, AudienceAdministrator, "workflow.invalid_initial_transition"},
	{ErrCrossCompanyReference, AudienceAdministrator, "workflow.cross_company_reference"},
	{ErrCrossProjectRole, AudienceAdministrator, "workflow.cross_project_role"},
	{ErrWorkflowInactive, AudienceAdministrator, "workflow.inactive"},

	{ErrTransitionNotAllowed, AudienceEndUser, "workflow.illegal_transition"},
	{ErrUnknownStatus, AudienceEndUser, "workflow.unknown_status"},
	{ErrForbidden, AudienceEndUser, "security.forbidden"},
	{ErrNotFound, AudienceEndUser, "common.record_not_found"},
}

// Describe translates err into the detail shown at the boundary and logs it at a level
// matching its audience.
func Describe(err error) *BizErrorDetail {
	if err == nil {
		return nil
	}
	detail := describe(err)

	entry := logrus.WithFields(logrus.Fields{"audience": detail.Audience, "code": detail.Code})
	switch detail.Audience {
	case AudienceNone:
		entry.Debug(err)
	case AudienceAdministrator:
		entry.Warn(err)
	case AudienceEndUser, AudienceCaller:
		entry.Info(err)
	default:
		entry.Error(err)
	}
	return detail
}

func describe(err error) *BizErrorDetail {
	var bizErr BizError
	if errors.As(err, &bizErr) {
		return bizErr.Respond()
	}

	if errors.Is(err, ErrConcurrentModification) {
		return &BizErrorDetail{Audience: AudienceCaller, Code: "common.concurrent_modification",
			Message: "the record was modified concurrently, retry with the latest version", Retryable: true, Cause: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BizErrorDetail{Audience: AudienceEndUser, Code: "common.record_not_found", Message: "record not found", Cause: err}
	}
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return &BizErrorDetail{Audience: AudienceEndUser, Code: "common.validation_failed", Message: "validation failed",
			Data: validationErr.Error(), Cause: err}
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &BizErrorDetail{Audience: s.audience, Code: s.code, Message: err.Error(), Cause: err}
		}
	}
	return &BizErrorDetail{Audience: "", Code: "common.internal_server_error", Message: err.Error(), Cause: err}
}

// IsApplicability reports whether err only signals that the workflow feature does not apply.
func IsApplicability(err error) bool {
	return errors.Is(err, ErrNoWorkflowConfigured) || errors.Is(err, ErrWorkflowNotApplicable)
}

func IsConfiguration(err error) bool {
	return err != nil && describe(err).Audience == AudienceAdministrator
}
