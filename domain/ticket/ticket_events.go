package ticket

import (
	"time"

	"statusflow/domain"
	"statusflow/event"
	"statusflow/session"

	"github.com/jinzhu/gorm"
)

func creatorOf(sec *session.Session) event.Creator {
	name := sec.Identity.Nickname
	if name == "" {
		name = sec.Identity.Name
	}
	return event.Creator{ID: sec.Identity.ID, Name: name}
}

func createTicketCreatedEvent(t *Ticket, sec *session.Session, timestamp time.Time, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(SourceType, t.ID, t.Title, event.EventCategoryCreated, nil, nil, creatorOf(sec), timestamp, db)
}

func createTicketDeletedEvent(t *Ticket, sec *session.Session, timestamp time.Time, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(SourceType, t.ID, t.Title, event.EventCategoryDeleted, nil, nil, creatorOf(sec), timestamp, db)
}

func createTicketStatusChangedEvent(t *Ticket, from, to *domain.Status, sec *session.Session, timestamp time.Time, db *gorm.DB) (*event.EventRecord, error) {
	relation := event.UpdatedRelation{PropertyName: "status", PropertyDesc: "Status", TargetType: "STATUS", TargetTypeDesc: "Status",
		OldTargetDesc: domain.StatusName(from), NewTargetDesc: domain.StatusName(to)}
	if from != nil {
		relation.OldTargetId = from.ID.String()
	}
	if to != nil {
		relation.NewTargetId = to.ID.String()
	}
	return event.CreateEvent(SourceType, t.ID, t.Title, event.EventCategoryStatusChanged, nil,
		[]event.UpdatedRelation{relation}, creatorOf(sec), timestamp, db)
}
