package flow

import (
	"context"
	"fmt"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/namespace"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ConfigIssue is a finding about a workflow configuration, addressed to administrators.
type ConfigIssue struct {
	Severity      Severity   `json:"severity"`
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	TransitionIDs []types.ID `json:"transitionIds,omitempty"`
	StatusIDs     []types.ID `json:"statusIds,omitempty"`

	err error
}

func (i ConfigIssue) Err() error {
	return i.err
}

// FirstError returns the error of the first error-severity issue.
func FirstError(issues []ConfigIssue) error {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return i.err
		}
	}
	return nil
}

func (m *WorkflowManager) CheckWorkflow(ctx context.Context, id types.ID, sec *session.Session) ([]ConfigIssue, error) {
	var issues []ConfigIssue
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectViewPerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		var err error
		issues, err = m.checkWorkflow(ctx, &wf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (m *WorkflowManager) checkWorkflow(ctx context.Context, wf *domain.Workflow) ([]ConfigIssue, error) {
	transitions, err := NewGormStore(m.ds).LoadTransitions(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	detail := domain.WorkflowDetail{Workflow: *wf}
	detail.StateMachine.Transitions = transitions

	issues := []ConfigIssue{}
	initials := detail.StateMachine.InitialTransitions()
	switch {
	case len(initials) == 0:
		noInitial := &bizerror.ErrNoInitialStatus{WorkflowID: wf.ID, WorkflowName: wf.Name}
		issues = append(issues, ConfigIssue{Severity: SeverityError, Code: "workflow.no_initial_status",
			Message: noInitial.Error(), err: noInitial})
	case len(initials) > 1:
		ids := make([]types.ID, 0, len(initials))
		for _, t := range initials {
			ids = append(ids, t.ID)
		}
		issues = append(issues, ConfigIssue{Severity: SeverityWarning, Code: "workflow.multiple_initial_transitions",
			Message: fmt.Sprintf("workflow '%s' has %d initial transitions, transition %s is used", wf.Name, len(initials), ids[0]),
			TransitionIDs: ids})
	}

	if len(initials) > 0 {
		reachable := detail.StateMachine.ReachableStatusIDs()
		unreachable := []types.ID{}
		for _, id := range detail.StateMachine.StatusIDs() {
			if !reachable[id] {
				unreachable = append(unreachable, id)
			}
		}
		if len(unreachable) > 0 {
			issues = append(issues, ConfigIssue{Severity: SeverityWarning, Code: "workflow.unreachable_statuses",
				Message:   fmt.Sprintf("workflow '%s' has %d statuses unreachable from its initial status", wf.Name, len(unreachable)),
				StatusIDs: unreachable})
		}
	}
	return issues, nil
}
