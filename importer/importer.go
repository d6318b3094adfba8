package importer

import (
	"context"
	"errors"
	"fmt"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/kanban"
	"statusflow/domain/namespace"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// Result maps the names of a definition to the ids they were stored with.
type Result struct {
	CompanyID   types.ID            `json:"companyId"`
	ProjectID   types.ID            `json:"projectId"`
	Statuses    map[string]types.ID `json:"statuses"`
	Roles       map[string]types.ID `json:"roles"`
	Workflows   map[string]types.ID `json:"workflows"`
	EntityTypes map[string]types.ID `json:"entityTypes"`
	Boards      map[string]types.ID `json:"boards"`
	Created     int                 `json:"created"`
}

// Importer applies definitions through the configuration services, so every write is checked
// the same way as an interactive one. Records that already exist by name are reused.
type Importer struct {
	ds          *persistence.DataSourceManager
	flows       *flow.WorkflowManager
	namespaces  *namespace.NamespaceManager
	boards      *kanban.BoardManager
	invalidator flow.Invalidator
}

func NewImporter(ds *persistence.DataSourceManager, flows *flow.WorkflowManager, namespaces *namespace.NamespaceManager,
	boards *kanban.BoardManager, invalidator flow.Invalidator) *Importer {
	return &Importer{ds: ds, flows: flows, namespaces: namespaces, boards: boards, invalidator: invalidator}
}

// Apply writes def in a single transaction.
func (im *Importer) Apply(ctx context.Context, def *Definition, sec *session.Session) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	result := &Result{Statuses: map[string]types.ID{}, Roles: map[string]types.ID{}, Workflows: map[string]types.ID{},
		EntityTypes: map[string]types.ID{}, Boards: map[string]types.ID{}}

	defer func() {
		if im.invalidator != nil {
			im.invalidator.Invalidate()
		}
	}()
	err := im.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		steps := []func(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error{
			im.applyNamespace, im.applyStatuses, im.applyRoles, im.applyWorkflows, im.applyEntityTypes,
			im.applyBoards, im.applyMembers,
		}
		for _, step := range steps {
			if err := step(ctx, tx, def, sec, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"company": def.Company, "project": def.Project, "created": result.Created}).
		Info("definition imported")
	return result, nil
}

func (im *Importer) applyNamespace(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	company := domain.Company{}
	found, err := first(tx.Where("name = ?", def.Company), &company)
	if err != nil {
		return err
	}
	if !found {
		created, err := im.namespaces.CreateCompany(ctx, &domain.CompanyCreation{Name: def.Company}, sec)
		if err != nil {
			return fmt.Errorf("company %s: %w", def.Company, err)
		}
		company = *created
		r.Created++
	}
	r.CompanyID = company.ID

	project := domain.Project{}
	found, err = first(tx.Where("company_id = ? AND name = ?", company.ID, def.Project), &project)
	if err != nil {
		return err
	}
	if !found {
		created, err := im.namespaces.CreateProject(ctx, &domain.ProjectCreation{Name: def.Project, CompanyID: company.ID}, sec)
		if err != nil {
			return fmt.Errorf("project %s: %w", def.Project, err)
		}
		project = *created
		r.Created++
	}
	r.ProjectID = project.ID
	return nil
}

func (im *Importer) applyStatuses(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, s := range def.Statuses {
		existing := domain.Status{}
		found, err := first(tx.Where("company_id = ? AND name = ?", r.CompanyID, s.Name), &existing)
		if err != nil {
			return err
		}
		if found {
			r.Statuses[s.Name] = existing.ID
			continue
		}
		created, err := im.flows.CreateStatus(ctx, &domain.StatusCreation{Name: s.Name, CompanyID: r.CompanyID,
			Color: s.Color, Icon: s.Icon, SortOrder: s.Order}, sec)
		if err != nil {
			return fmt.Errorf("status %s: %w", s.Name, err)
		}
		r.Statuses[s.Name] = created.ID
		r.Created++
	}
	return nil
}

func (im *Importer) applyRoles(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, name := range def.Roles {
		existing := domain.Role{}
		found, err := first(tx.Where("project_id = ? AND name = ?", r.ProjectID, name), &existing)
		if err != nil {
			return err
		}
		if found {
			r.Roles[name] = existing.ID
			continue
		}
		created, err := im.flows.CreateRole(ctx, &domain.RoleCreation{Name: name, ProjectID: r.ProjectID}, sec)
		if err != nil {
			return fmt.Errorf("role %s: %w", name, err)
		}
		r.Roles[name] = created.ID
		r.Created++
	}
	return nil
}

func (im *Importer) applyWorkflows(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, wd := range def.Workflows {
		wf := domain.Workflow{}
		found, err := first(tx.Where("project_id = ? AND name = ?", r.ProjectID, wd.Name), &wf)
		if err != nil {
			return err
		}
		if !found {
			created, err := im.flows.CreateWorkflow(ctx, &domain.WorkflowCreation{Name: wd.Name, ProjectID: r.ProjectID}, sec)
			if err != nil {
				return fmt.Errorf("workflow %s: %w", wd.Name, err)
			}
			wf = *created
			r.Created++
		}
		r.Workflows[wd.Name] = wf.ID

		for _, td := range wd.Transitions {
			c := domain.TransitionCreation{WorkflowID: wf.ID, ToStatusID: r.Statuses[td.To], Initial: td.From == ""}
			if td.From != "" {
				c.FromStatusID = r.Statuses[td.From]
			}
			for _, role := range td.Roles {
				c.RoleIDs = append(c.RoleIDs, r.Roles[role])
			}
			_, err := im.flows.CreateTransition(ctx, &c, sec)
			switch {
			case errors.Is(err, bizerror.ErrTransitionExisted):
				continue
			case err != nil:
				return fmt.Errorf("workflow %s transition %s -> %s: %w", wd.Name, td.From, td.To, err)
			}
			r.Created++
		}

		if wd.Active && !wf.Active {
			if err := im.flows.ActivateWorkflow(ctx, wf.ID, sec); err != nil {
				return fmt.Errorf("workflow %s: %w", wd.Name, err)
			}
		}
	}
	return nil
}

func (im *Importer) applyEntityTypes(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, td := range def.EntityTypes {
		workflowID := r.Workflows[td.Workflow]
		existing := domain.EntityType{}
		found, err := first(tx.Where("company_id = ? AND kind = ? AND name = ?", r.CompanyID, td.Kind, td.Name), &existing)
		if err != nil {
			return err
		}
		if found {
			r.EntityTypes[td.Name] = existing.ID
			if existing.WorkflowID != workflowID {
				if err := im.flows.AssignWorkflow(ctx, existing.ID, workflowID, sec); err != nil {
					return fmt.Errorf("entity type %s: %w", td.Name, err)
				}
			}
			continue
		}
		created, err := im.flows.CreateEntityType(ctx, &domain.EntityTypeCreation{Name: td.Name, Kind: td.Kind,
			CompanyID: r.CompanyID, WorkflowID: workflowID}, sec)
		if err != nil {
			return fmt.Errorf("entity type %s: %w", td.Name, err)
		}
		r.EntityTypes[td.Name] = created.ID
		r.Created++
	}
	return nil
}

func (im *Importer) applyBoards(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, bd := range def.Boards {
		columns := make([]kanban.Column, 0, len(bd.Columns))
		for _, cd := range bd.Columns {
			c := kanban.Column{Name: cd.Name, Default: cd.Default, StatusIDs: []types.ID{}}
			for _, s := range cd.Statuses {
				c.StatusIDs = append(c.StatusIDs, r.Statuses[s])
			}
			columns = append(columns, c)
		}

		existing := kanban.Board{}
		found, err := first(tx.Where("project_id = ? AND name = ?", r.ProjectID, bd.Name), &existing)
		if err != nil {
			return err
		}
		if found {
			if _, err := im.boards.UpdateBoardColumns(ctx, existing.ID, columns, sec); err != nil {
				return fmt.Errorf("board %s: %w", bd.Name, err)
			}
			r.Boards[bd.Name] = existing.ID
			continue
		}
		created, err := im.boards.CreateBoard(ctx, &kanban.BoardCreation{Name: bd.Name, ProjectID: r.ProjectID, Columns: columns}, sec)
		if err != nil {
			return fmt.Errorf("board %s: %w", bd.Name, err)
		}
		r.Boards[bd.Name] = created.ID
		r.Created++
	}
	return nil
}

func (im *Importer) applyMembers(ctx context.Context, tx *gorm.DB, def *Definition, sec *session.Session, r *Result) error {
	for _, md := range def.Members {
		for _, role := range md.Roles {
			grant := domain.ProjectMemberCreation{ProjectID: r.ProjectID, MemberID: types.ID(md.Member), RoleID: r.Roles[role]}
			if err := im.namespaces.GrantMemberRole(ctx, &grant, sec); err != nil {
				return fmt.Errorf("member %d role %s: %w", md.Member, role, err)
			}
		}
	}
	return nil
}

func first(db *gorm.DB, out interface{}) (bool, error) {
	err := db.First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
