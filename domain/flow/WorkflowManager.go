package flow

import (
	"context"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/idgen"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// StatusReferenceChecker reports bizerror.ErrStatusIsReferenced when something outside the
// workflow configuration still points at status.
type StatusReferenceChecker func(ctx context.Context, tx *gorm.DB, status domain.Status) error

type RoleReferenceChecker func(ctx context.Context, tx *gorm.DB, role domain.Role) error

// DefaultTypeFactory describes the entity type minted for an item kind when a company has none.
type DefaultTypeFactory func(companyID types.ID) domain.EntityTypeCreation

type Invalidator interface {
	Invalidate()
}

// WorkflowManager owns the configuration side: statuses, roles, workflows, transitions and
// entity types. Every write enforces the configuration invariants and invalidates the cache.
type WorkflowManager struct {
	ds          *persistence.DataSourceManager
	invalidator Invalidator
	idWorker    *sonyflake.Sonyflake

	statusReferenceCheckers []StatusReferenceChecker
	roleReferenceCheckers   []RoleReferenceChecker
	defaultTypeFactories    map[string]DefaultTypeFactory
}

func NewWorkflowManager(ds *persistence.DataSourceManager, invalidator Invalidator) *WorkflowManager {
	return &WorkflowManager{
		ds:                   ds,
		invalidator:          invalidator,
		idWorker:             idgen.NewWorker(),
		defaultTypeFactories: map[string]DefaultTypeFactory{},
	}
}

func (m *WorkflowManager) RegisterStatusReferenceChecker(checker StatusReferenceChecker) {
	m.statusReferenceCheckers = append(m.statusReferenceCheckers, checker)
}

func (m *WorkflowManager) RegisterRoleReferenceChecker(checker RoleReferenceChecker) {
	m.roleReferenceCheckers = append(m.roleReferenceCheckers, checker)
}

func (m *WorkflowManager) RegisterDefaultTypeFactory(kind string, factory DefaultTypeFactory) {
	m.defaultTypeFactories[kind] = factory
}

func (m *WorkflowManager) invalidate() {
	if m.invalidator != nil {
		m.invalidator.Invalidate()
	}
}

// write runs fn in a transaction and drops cached configuration afterwards, whatever the outcome.
func (m *WorkflowManager) write(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	defer m.invalidate()
	return m.ds.Transaction(ctx, fn)
}

func (m *WorkflowManager) nextID() types.ID {
	return idgen.NextID(m.idWorker)
}

func exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var c int
	if err := tx.Model(model).Where(query, args...).Count(&c).Error; err != nil {
		return false, err
	}
	return c > 0, nil
}

// hideMissing answers a missing record with ErrForbidden unless the caller has global view, so
// callers cannot tell ids of other tenants from unused ids.
func hideMissing(err error, sec *session.Session) error {
	if gorm.IsRecordNotFoundError(err) && !sec.Perms.HasGlobalViewRole() {
		return bizerror.ErrForbidden
	}
	return err
}
