package app

import (
	"context"
	"time"

	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/kanban"
	"statusflow/domain/namespace"
	"statusflow/domain/ticket"
	"statusflow/event"
	"statusflow/importer"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/sirupsen/logrus"
)

// Engine wires the storage, cache, configuration services and the ticket item kind together.
type Engine struct {
	DS *persistence.DataSourceManager

	Store      *flow.CachedStore
	Workflows  *flow.WorkflowManager
	Namespaces *namespace.NamespaceManager
	Boards     *kanban.BoardManager
	Tickets    *ticket.TicketManager
	Importer   *importer.Importer
}

func NewEngine(ds *persistence.DataSourceManager, options ...Option) *Engine {
	o := defaultOptions()
	for _, apply := range options {
		apply(&o)
	}

	store := flow.NewCachedStore(flow.NewGormStore(ds), o.workflowTTL)
	workflows := flow.NewWorkflowManager(ds, store)
	namespaces := namespace.NewNamespaceManager(ds)
	boards := kanban.NewBoardManager(ds)

	workflows.RegisterStatusReferenceChecker(ticket.CheckStatusReference)
	workflows.RegisterStatusReferenceChecker(kanban.CheckStatusReference)
	workflows.RegisterRoleReferenceChecker(namespace.CheckRoleReference)
	workflows.RegisterDefaultTypeFactory(ticket.Kind, ticket.DefaultTypeFactory)

	return &Engine{
		DS:         ds,
		Store:      store,
		Workflows:  workflows,
		Namespaces: namespaces,
		Boards:     boards,
		Tickets:    ticket.NewTicketManager(ds, store, workflows, o.reporter, boards),
		Importer:   importer.NewImporter(ds, workflows, namespaces, boards, store),
	}
}

func Models() []interface{} {
	models := []interface{}{
		&domain.Company{}, &domain.Project{}, &domain.ProjectMember{},
		&domain.Status{}, &domain.Role{}, &domain.Workflow{}, &domain.WorkflowTransition{}, &domain.TransitionRole{},
		&domain.EntityType{}, &ticket.Ticket{}, &event.EventRecord{},
	}
	return append(models, kanban.Models()...)
}

// Migrate creates or extends the tables of every model. Concurrent migrations from several
// instances may race, run it from a single process.
func (e *Engine) Migrate(ctx context.Context) error {
	if err := e.DS.GormDB(ctx).AutoMigrate(Models()...).Error; err != nil {
		return err
	}
	logrus.WithField("models", len(Models())).Info("database migrated")
	return nil
}

// LogEventHandler writes a line for every recorded event.
func LogEventHandler(e *event.EventRecord) *event.EventHandleResult {
	logrus.WithFields(logrus.Fields{
		"sourceType": e.SourceType,
		"sourceId":   e.SourceId,
		"category":   e.EventCategory,
		"creator":    e.CreatorName,
	}).Info("event recorded")
	return nil
}

// SessionFor builds the session of a member with the workflow roles granted to them in storage.
func (e *Engine) SessionFor(ctx context.Context, identity session.Identity, perms ...string) (*session.Session, error) {
	roles, err := e.Namespaces.LoadProjectRoles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return &session.Session{Context: ctx, Identity: identity, Perms: perms, ProjectRoles: roles,
		SigningTime: time.Now()}, nil
}
