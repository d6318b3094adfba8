package ticket

import (
	"time"

	"statusflow/domain"

	"github.com/fundwit/go-commons/types"
)

const (
	Kind       = "ticket"
	SourceType = "TICKET"
)

// Ticket is a status tracked work item of a project. Version guards concurrent status changes.
type Ticket struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	Title     string   `json:"title" gorm:"not null"`
	ProjectID types.ID `json:"projectId" gorm:"index:idx_ticket_project;not null"`

	EntityTypeID types.ID `json:"entityTypeId"`
	StatusID     types.ID `json:"statusId" gorm:"index:idx_ticket_status"`
	Version      int      `json:"version" gorm:"not null"`

	CreateTime time.Time `json:"createTime"`
	Creator    types.ID  `json:"creator"`

	entityType *domain.EntityType
	status     *domain.Status
}

func (t *Ticket) ItemKind() string {
	return Kind
}

func (t *Ticket) EntityType() *domain.EntityType {
	return t.entityType
}

func (t *Ticket) SetEntityType(et *domain.EntityType) {
	t.entityType = et
	t.EntityTypeID = 0
	if et != nil {
		t.EntityTypeID = et.ID
	}
}

func (t *Ticket) CurrentStatus() *domain.Status {
	return t.status
}

func (t *Ticket) SetStatus(s *domain.Status) {
	t.status = s
	t.StatusID = 0
	if s != nil {
		t.StatusID = s.ID
	}
}

type TicketDetail struct {
	Ticket

	Type   *domain.EntityType `json:"type"`
	Status *domain.Status     `json:"status"`
}

func detailOf(t *Ticket) *TicketDetail {
	return &TicketDetail{Ticket: *t, Type: t.entityType, Status: t.status}
}

type TicketCreation struct {
	Title        string   `json:"title" validate:"required,lte=200"`
	ProjectID    types.ID `json:"projectId" validate:"required"`
	EntityTypeID types.ID `json:"entityTypeId"`
}

// TicketTransition moves a ticket to ToStatusID. A non-zero ExpectedVersion must match the
// stored version.
type TicketTransition struct {
	ToStatusID      types.ID `json:"toStatusId" validate:"required"`
	ExpectedVersion int      `json:"expectedVersion"`
}

type TicketQuery struct {
	ProjectID    types.ID `json:"projectId"`
	StatusID     types.ID `json:"statusId"`
	EntityTypeID types.ID `json:"entityTypeId"`
}

// DefaultTypeFactory names the entity type minted for companies without ticket types.
func DefaultTypeFactory(companyID types.ID) domain.EntityTypeCreation {
	return domain.EntityTypeCreation{Name: "Ticket", Kind: Kind, CompanyID: companyID}
}
