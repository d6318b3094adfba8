package importer

import (
	"context"

	"statusflow/domain"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
)

// Export reads the configuration of a project back into a definition that Apply accepts.
// Every status of the company is exported since statuses are shared by its projects.
func (im *Importer) Export(ctx context.Context, projectID types.ID, sec *session.Session) (*Definition, error) {
	project, err := im.namespaces.DetailProject(ctx, projectID, sec)
	if err != nil {
		return nil, err
	}
	company := domain.Company{}
	if err := im.ds.GormDB(ctx).Where("id = ?", project.CompanyID).First(&company).Error; err != nil {
		return nil, err
	}
	def := Definition{Company: company.Name, Project: project.Name, Statuses: []StatusDefinition{}}

	statuses, err := im.flows.QueryStatuses(ctx, &domain.StatusQuery{CompanyID: company.ID}, sec)
	if err != nil {
		return nil, err
	}
	statusNames := map[types.ID]string{}
	for _, s := range statuses {
		statusNames[s.ID] = s.Name
		def.Statuses = append(def.Statuses, StatusDefinition{Name: s.Name, Color: s.Color, Icon: s.Icon, Order: s.SortOrder})
	}

	roles, err := im.flows.QueryRoles(ctx, projectID, sec)
	if err != nil {
		return nil, err
	}
	roleNames := map[types.ID]string{}
	for _, r := range roles {
		roleNames[r.ID] = r.Name
		def.Roles = append(def.Roles, r.Name)
	}

	workflows, err := im.flows.QueryWorkflows(ctx, &domain.WorkflowQuery{ProjectID: projectID}, sec)
	if err != nil {
		return nil, err
	}
	workflowNames := map[types.ID]string{}
	for _, wf := range workflows {
		workflowNames[wf.ID] = wf.Name
		transitions, err := im.flows.QueryTransitions(ctx, wf.ID, sec)
		if err != nil {
			return nil, err
		}
		wd := WorkflowDefinition{Name: wf.Name, Active: wf.Active, Transitions: []TransitionDefinition{}}
		for _, t := range transitions {
			td := TransitionDefinition{To: t.ToStatus.Name}
			if t.FromStatus != nil {
				td.From = t.FromStatus.Name
			}
			for _, r := range t.Roles {
				td.Roles = append(td.Roles, r.Name)
			}
			wd.Transitions = append(wd.Transitions, td)
		}
		def.Workflows = append(def.Workflows, wd)
	}

	// types bound to workflows of other projects are left to those projects
	entityTypes, err := im.flows.QueryEntityTypes(ctx, company.ID, "", sec)
	if err != nil {
		return nil, err
	}
	for _, t := range entityTypes {
		if t.WorkflowID == 0 {
			continue
		}
		name, ok := workflowNames[t.WorkflowID]
		if !ok {
			continue
		}
		def.EntityTypes = append(def.EntityTypes, EntityTypeDefinition{Name: t.Name, Kind: t.Kind, Workflow: name})
	}

	boards, err := im.boards.QueryBoards(ctx, projectID, sec)
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		detail, err := im.boards.LoadBoard(ctx, b.ID, sec)
		if err != nil {
			return nil, err
		}
		bd := BoardDefinition{Name: b.Name, Columns: []ColumnDefinition{}}
		for _, c := range detail.Columns {
			cd := ColumnDefinition{Name: c.Name, Default: c.Default}
			for _, id := range c.StatusIDs {
				cd.Statuses = append(cd.Statuses, statusNames[id])
			}
			bd.Columns = append(bd.Columns, cd)
		}
		def.Boards = append(def.Boards, bd)
	}

	members, err := im.namespaces.QueryProjectMembers(ctx, projectID, sec)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		last := len(def.Members) - 1
		if last < 0 || def.Members[last].Member != uint64(m.MemberID) {
			def.Members = append(def.Members, MemberDefinition{Member: uint64(m.MemberID)})
			last++
		}
		def.Members[last].Roles = append(def.Members[last].Roles, roleNames[m.RoleID])
	}
	return &def, nil
}
