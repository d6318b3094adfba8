package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/domain/item"
	"statusflow/domain/kanban"
	"statusflow/domain/namespace"
	"statusflow/event"
	"statusflow/idgen"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

// TicketManager drives tickets through the workflow engine. Every change is written in one
// transaction together with its event; event handlers run after commit.
type TicketManager struct {
	ds          *persistence.DataSourceManager
	store       flow.Store
	initializer *item.Initializer
	validator   *item.TransitionValidator
	boards      *kanban.BoardManager
	idWorker    *sonyflake.Sonyflake
}

func NewTicketManager(ds *persistence.DataSourceManager, store flow.Store, defaults item.DefaultTypeProvider,
	reporter item.IssueReporter, boards *kanban.BoardManager) *TicketManager {
	resolver := flow.NewResolver(store)
	return &TicketManager{
		ds:          ds,
		store:       store,
		initializer: item.NewInitializer(resolver, defaults, reporter),
		validator:   item.NewTransitionValidator(resolver),
		boards:      boards,
		idWorker:    idgen.NewWorker(),
	}
}

func (m *TicketManager) CreateTicket(ctx context.Context, c *TicketCreation, sec *session.Session) (*TicketDetail, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}

	t := Ticket{ID: idgen.NextID(m.idWorker), Title: c.Title, ProjectID: c.ProjectID, Version: 1,
		CreateTime: time.Now().Round(time.Millisecond), Creator: sec.Identity.ID}
	var ev *event.EventRecord
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		project, err := namespace.CheckProjectViewPerm(tx, c.ProjectID, sec)
		if err != nil {
			return err
		}
		if c.EntityTypeID != 0 {
			et, err := m.store.LoadEntityType(ctx, c.EntityTypeID)
			if err != nil {
				return asBadParam(err)
			}
			if et.Kind != Kind {
				return &bizerror.ErrBadParam{Cause: fmt.Errorf("entity type %s is not a ticket type", et.ID)}
			}
			if et.CompanyID != project.CompanyID {
				return bizerror.ErrCrossCompanyReference
			}
			t.SetEntityType(et)
		}
		if err := m.initializer.InitializeNewItem(ctx, &t, project); err != nil {
			return err
		}

		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		ev, err = createTicketCreatedEvent(&t, sec, t.CreateTime, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return detailOf(&t), nil
}

// TransitionTicket moves a ticket along its workflow. A concurrent change of the same ticket
// fails the later writer with bizerror.ErrConcurrentModification.
func (m *TicketManager) TransitionTicket(ctx context.Context, id types.ID, c *TicketTransition, sec *session.Session) (*TicketDetail, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}

	t := Ticket{}
	var ev *event.EventRecord
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		project, err := m.findTicket(ctx, tx, id, &t, sec)
		if err != nil {
			return err
		}
		if c.ExpectedVersion != 0 && c.ExpectedVersion != t.Version {
			return bizerror.ErrConcurrentModification
		}

		target, err := m.store.LoadStatus(ctx, c.ToStatusID)
		if errors.Is(err, bizerror.ErrNotFound) {
			return bizerror.ErrUnknownStatus
		}
		if err != nil {
			return err
		}

		from := t.CurrentStatus()
		if err := m.validator.ApplyTransition(ctx, &t, target, sec.ActorIn(project.ID)); err != nil {
			return err
		}

		db := tx.Model(&Ticket{}).Where("id = ? AND version = ?", t.ID, t.Version).
			Updates(map[string]interface{}{"status_id": t.StatusID, "version": t.Version + 1})
		if db.Error != nil {
			return db.Error
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrConcurrentModification
		}
		t.Version++

		ev, err = createTicketStatusChangedEvent(&t, from, t.CurrentStatus(), sec, time.Now().Round(time.Millisecond), tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return detailOf(&t), nil
}

// AvailableStatuses lists the statuses the caller may move a ticket to.
func (m *TicketManager) AvailableStatuses(ctx context.Context, id types.ID, sec *session.Session) ([]domain.Status, error) {
	t := Ticket{}
	project, err := m.findTicket(ctx, m.ds.GormDB(ctx), id, &t, sec)
	if err != nil {
		return nil, err
	}
	return m.validator.AvailableStatuses(ctx, &t, sec.ActorIn(project.ID))
}

func (m *TicketManager) DetailTicket(ctx context.Context, id types.ID, sec *session.Session) (*TicketDetail, error) {
	t := Ticket{}
	if _, err := m.findTicket(ctx, m.ds.GormDB(ctx), id, &t, sec); err != nil {
		return nil, err
	}
	return detailOf(&t), nil
}

func (m *TicketManager) QueryTickets(ctx context.Context, q *TicketQuery, sec *session.Session) ([]Ticket, error) {
	tickets := []Ticket{}
	db := m.ds.GormDB(ctx).Model(&Ticket{})
	if q.ProjectID != 0 {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if q.StatusID != 0 {
		db = db.Where("status_id = ?", q.StatusID)
	}
	if q.EntityTypeID != 0 {
		db = db.Where("entity_type_id = ?", q.EntityTypeID)
	}
	if !sec.Perms.HasGlobalViewRole() {
		visible := sec.VisibleProjects()
		if len(visible) == 0 {
			return tickets, nil
		}
		db = db.Where("project_id IN (?)", visible)
	}
	if err := db.Order("create_time ASC, id ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// DeleteTicket is allowed to the creator and to managers of the project.
func (m *TicketManager) DeleteTicket(ctx context.Context, id types.ID, sec *session.Session) error {
	var ev *event.EventRecord
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		t := Ticket{}
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			return err
		}
		if t.Creator != sec.Identity.ID {
			if _, err := namespace.CheckProjectManagePerm(tx, t.ProjectID, sec); err != nil {
				return err
			}
		}
		if err := tx.Where("id = ?", id).Delete(&Ticket{}).Error; err != nil {
			return err
		}
		var err error
		ev, err = createTicketDeletedEvent(&t, sec, time.Now().Round(time.Millisecond), tx)
		return err
	})
	if err != nil {
		return err
	}
	event.InvokeHandlersFunc(ev)
	return nil
}

type BoardView struct {
	Board   kanban.BoardDetail   `json:"board"`
	Columns map[string][]*Ticket `json:"columns"`
}

// BoardView groups the tickets of a board's project into the board columns.
func (m *TicketManager) BoardView(ctx context.Context, boardID types.ID, sec *session.Session) (*BoardView, error) {
	board, err := m.boards.LoadBoard(ctx, boardID, sec)
	if err != nil {
		return nil, err
	}
	var tickets []*Ticket
	if err := m.ds.GormDB(ctx).Where("project_id = ?", board.ProjectID).Order("create_time ASC, id ASC").
		Find(&tickets).Error; err != nil {
		return nil, err
	}

	statusIDs := []types.ID{}
	seen := map[types.ID]bool{}
	for _, t := range tickets {
		if t.StatusID != 0 && !seen[t.StatusID] {
			seen[t.StatusID] = true
			statusIDs = append(statusIDs, t.StatusID)
		}
	}
	statuses, err := m.store.LoadStatuses(ctx, statusIDs)
	if err != nil {
		return nil, err
	}
	statusByID := map[types.ID]*domain.Status{}
	for i := range statuses {
		statusByID[statuses[i].ID] = &statuses[i]
	}
	for _, t := range tickets {
		t.status = statusByID[t.StatusID]
	}

	return &BoardView{Board: *board, Columns: kanban.GroupByColumn(tickets, board.Columns)}, nil
}

// findTicket loads a ticket with its entity type and status, checking the caller sees its project.
func (m *TicketManager) findTicket(ctx context.Context, db *gorm.DB, id types.ID, t *Ticket, sec *session.Session) (*domain.Project, error) {
	if err := db.Where("id = ?", id).First(t).Error; err != nil {
		return nil, err
	}
	project, err := namespace.CheckProjectViewPerm(db, t.ProjectID, sec)
	if err != nil {
		return nil, err
	}

	if t.EntityTypeID != 0 {
		et, err := m.store.LoadEntityType(ctx, t.EntityTypeID)
		switch {
		case errors.Is(err, bizerror.ErrNotFound):
			logrus.WithFields(logrus.Fields{"ticketId": t.ID, "entityTypeId": t.EntityTypeID}).Warn("ticket references a missing entity type")
		case err != nil:
			return nil, err
		default:
			t.entityType = et
		}
	}
	if t.StatusID != 0 {
		s, err := m.store.LoadStatus(ctx, t.StatusID)
		if err != nil {
			return nil, err
		}
		t.status = s
	}
	return project, nil
}

// CheckStatusReference refuses deleting statuses still held by tickets.
func CheckStatusReference(ctx context.Context, tx *gorm.DB, status domain.Status) error {
	var count int
	if err := tx.Model(&Ticket{}).Where("status_id = ?", status.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return bizerror.ErrStatusIsReferenced
	}
	return nil
}

func asBadParam(err error) error {
	if errors.Is(err, bizerror.ErrNotFound) {
		return &bizerror.ErrBadParam{Cause: err}
	}
	return err
}
