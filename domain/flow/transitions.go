package flow

import (
	"context"
	"fmt"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/namespace"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// CreateTransition adds an edge to a workflow after checking that it is unique, that initial
// edges and the empty from status go together, that both statuses belong to the company of the
// workflow's project and that every role belongs to that project. Self edges are allowed.
func (m *WorkflowManager) CreateTransition(ctx context.Context, c *domain.TransitionCreation, sec *session.Session) (*domain.WorkflowTransition, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if (c.FromStatusID == 0) != c.Initial {
		return nil, bizerror.ErrInvalidInitialTransition
	}

	t := domain.WorkflowTransition{ID: m.nextID(), WorkflowID: c.WorkflowID, FromStatusID: c.FromStatusID,
		ToStatusID: c.ToStatusID, Initial: c.Initial, CreateTime: time.Now().Round(time.Millisecond)}
	err := m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", c.WorkflowID).First(&wf).Error; err != nil {
			return err
		}
		project, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec)
		if err != nil {
			return err
		}

		statusIDs := []types.ID{c.ToStatusID}
		if c.FromStatusID != 0 && c.FromStatusID != c.ToStatusID {
			statusIDs = append(statusIDs, c.FromStatusID)
		}
		if err := checkStatusesOfCompany(tx, statusIDs, project.CompanyID); err != nil {
			return err
		}
		roleIDs := distinctIDs(c.RoleIDs)
		if err := checkRolesOfProject(tx, roleIDs, project.ID); err != nil {
			return err
		}

		existed, err := exists(tx, &domain.WorkflowTransition{}, "workflow_id = ? AND from_status_id = ? AND to_status_id = ?",
			c.WorkflowID, c.FromStatusID, c.ToStatusID)
		if err != nil {
			return err
		}
		if existed {
			return bizerror.ErrTransitionExisted
		}

		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return insertTransitionRoles(tx, t.ID, roleIDs)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransitionRoles replaces the role set of a transition. An empty set opens it to anyone.
func (m *WorkflowManager) UpdateTransitionRoles(ctx context.Context, id types.ID, roleIDs []types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		t, wf, err := findTransition(tx, id)
		if err != nil {
			return hideMissing(err, sec)
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		roleIDs = distinctIDs(roleIDs)
		if err := checkRolesOfProject(tx, roleIDs, wf.ProjectID); err != nil {
			return err
		}
		if err := tx.Where("transition_id = ?", t.ID).Delete(&domain.TransitionRole{}).Error; err != nil {
			return err
		}
		if err := insertTransitionRoles(tx, t.ID, roleIDs); err != nil {
			return err
		}
		return m.recheckActive(ctx, wf)
	})
}

// DeleteTransition removes an edge and its roles. Active workflows keep at least one initial edge.
func (m *WorkflowManager) DeleteTransition(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.write(ctx, func(ctx context.Context, tx *gorm.DB) error {
		t, wf, err := findTransition(tx, id)
		if err != nil {
			return hideMissing(err, sec)
		}
		if _, err := namespace.CheckProjectManagePerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}
		if err := tx.Where("transition_id = ?", t.ID).Delete(&domain.TransitionRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", t.ID).Delete(&domain.WorkflowTransition{}).Error; err != nil {
			return err
		}
		return m.recheckActive(ctx, wf)
	})
}

// recheckActive fails when an edit left an active workflow with check errors, rolling the edit back.
func (m *WorkflowManager) recheckActive(ctx context.Context, wf *domain.Workflow) error {
	if !wf.Active {
		return nil
	}
	issues, err := m.checkWorkflow(ctx, wf)
	if err != nil {
		return err
	}
	return FirstError(issues)
}

// QueryTransitions lists the transitions of a workflow with statuses and roles resolved.
func (m *WorkflowManager) QueryTransitions(ctx context.Context, workflowID types.ID, sec *session.Session) ([]domain.TransitionDetail, error) {
	details := []domain.TransitionDetail{}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		wf := domain.Workflow{}
		if err := tx.Where("id = ?", workflowID).First(&wf).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectViewPerm(tx, wf.ProjectID, sec); err != nil {
			return err
		}

		var records []domain.WorkflowTransition
		if err := tx.Where("workflow_id = ?", workflowID).Order("id ASC").Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		var statuses []domain.Status
		if err := tx.Where("id IN (?)", statusIDsOf(records)).Find(&statuses).Error; err != nil {
			return err
		}
		statusByID := map[types.ID]domain.Status{}
		for _, s := range statuses {
			statusByID[s.ID] = s
		}

		var roles []domain.Role
		if err := tx.Where("id IN (SELECT role_id FROM transition_roles WHERE transition_id IN (?))", transitionIDsOf(records)).
			Order("id ASC").Find(&roles).Error; err != nil {
			return err
		}
		roleByID := map[types.ID]domain.Role{}
		for _, r := range roles {
			roleByID[r.ID] = r
		}
		var grants []domain.TransitionRole
		if err := tx.Where("transition_id IN (?)", transitionIDsOf(records)).Order("role_id ASC").Find(&grants).Error; err != nil {
			return err
		}
		grantsOf := map[types.ID][]domain.Role{}
		for _, g := range grants {
			grantsOf[g.TransitionID] = append(grantsOf[g.TransitionID], roleByID[g.RoleID])
		}

		for _, r := range records {
			d := domain.TransitionDetail{WorkflowTransition: r, ToStatus: statusByID[r.ToStatusID], Roles: grantsOf[r.ID]}
			if r.FromStatusID != 0 {
				from := statusByID[r.FromStatusID]
				d.FromStatus = &from
			}
			if d.Roles == nil {
				d.Roles = []domain.Role{}
			}
			details = append(details, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func findTransition(tx *gorm.DB, id types.ID) (*domain.WorkflowTransition, *domain.Workflow, error) {
	t := domain.WorkflowTransition{}
	if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, nil, err
	}
	wf := domain.Workflow{}
	if err := tx.Where("id = ?", t.WorkflowID).First(&wf).Error; err != nil {
		return nil, nil, err
	}
	return &t, &wf, nil
}

func checkStatusesOfCompany(tx *gorm.DB, ids []types.ID, companyID types.ID) error {
	var statuses []domain.Status
	if err := tx.Where("id IN (?)", ids).Find(&statuses).Error; err != nil {
		return err
	}
	if len(statuses) != len(ids) {
		return bizerror.ErrUnknownStatus
	}
	for _, s := range statuses {
		if s.CompanyID != companyID {
			return bizerror.ErrCrossCompanyReference
		}
	}
	return nil
}

func checkRolesOfProject(tx *gorm.DB, ids []types.ID, projectID types.ID) error {
	if len(ids) == 0 {
		return nil
	}
	var roles []domain.Role
	if err := tx.Where("id IN (?)", ids).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) != len(ids) {
		return &bizerror.ErrBadParam{Cause: fmt.Errorf("role: %w", bizerror.ErrNotFound)}
	}
	for _, r := range roles {
		if r.ProjectID != projectID {
			return bizerror.ErrCrossProjectRole
		}
	}
	return nil
}

func insertTransitionRoles(tx *gorm.DB, transitionID types.ID, roleIDs []types.ID) error {
	for _, roleID := range roleIDs {
		if err := tx.Create(&domain.TransitionRole{TransitionID: transitionID, RoleID: roleID}).Error; err != nil {
			return err
		}
	}
	return nil
}

func distinctIDs(ids []types.ID) []types.ID {
	seen := map[types.ID]bool{}
	r := []types.ID{}
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			r = append(r, id)
		}
	}
	return r
}

func statusIDsOf(records []domain.WorkflowTransition) []types.ID {
	ids := []types.ID{}
	for _, r := range records {
		ids = append(ids, r.ToStatusID)
		if r.FromStatusID != 0 {
			ids = append(ids, r.FromStatusID)
		}
	}
	return distinctIDs(ids)
}

func transitionIDsOf(records []domain.WorkflowTransition) []types.ID {
	ids := make([]types.ID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
