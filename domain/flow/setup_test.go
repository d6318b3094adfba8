package flow_test

import (
	"context"
	"testing"
	"time"

	"statusflow/authority"
	"statusflow/domain"
	"statusflow/domain/flow"
	"statusflow/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

const (
	companyA types.ID = 1
	companyB types.ID = 2
	projectA types.ID = 10
	projectB types.ID = 20
)

var (
	ctx   = context.Background()
	admin = testinfra.BuildSession(1, authority.SystemAdmin)
)

type testEnv struct {
	db      *testinfra.TestDatabase
	cached  *flow.CachedStore
	manager *flow.WorkflowManager
}

func setup(t *testing.T, env *testEnv) {
	db := testinfra.StartTestDatabase("statusflow")
	gormDB := db.DS.GormDB(ctx)
	assert.Nil(t, gormDB.AutoMigrate(&domain.Company{}, &domain.Project{}, &domain.Status{}, &domain.Role{},
		&domain.Workflow{}, &domain.WorkflowTransition{}, &domain.TransitionRole{}, &domain.EntityType{}).Error)

	now := time.Now()
	assert.Nil(t, gormDB.Create(&domain.Company{ID: companyA, Name: "acme", CreateTime: now}).Error)
	assert.Nil(t, gormDB.Create(&domain.Company{ID: companyB, Name: "globex", CreateTime: now}).Error)
	assert.Nil(t, gormDB.Create(&domain.Project{ID: projectA, Name: "rocket", CompanyID: companyA, CreateTime: now}).Error)
	assert.Nil(t, gormDB.Create(&domain.Project{ID: projectB, Name: "rocket", CompanyID: companyB, CreateTime: now}).Error)

	env.db = db
	env.cached = flow.NewCachedStore(flow.NewGormStore(db.DS), time.Minute)
	env.manager = flow.NewWorkflowManager(db.DS, env.cached)
}

func teardown(t *testing.T, env *testEnv) {
	if env.db != nil {
		testinfra.StopTestDatabase(env.db)
		env.db = nil
	}
}

func createStatus(env *testEnv, companyID types.ID, name string) *domain.Status {
	s, err := env.manager.CreateStatus(ctx, &domain.StatusCreation{Name: name, CompanyID: companyID}, admin)
	Expect(err).To(BeNil())
	return s
}

func createRole(env *testEnv, projectID types.ID, name string) *domain.Role {
	r, err := env.manager.CreateRole(ctx, &domain.RoleCreation{Name: name, ProjectID: projectID}, admin)
	Expect(err).To(BeNil())
	return r
}

func createWorkflow(env *testEnv, projectID types.ID, name string) *domain.Workflow {
	wf, err := env.manager.CreateWorkflow(ctx, &domain.WorkflowCreation{Name: name, ProjectID: projectID}, admin)
	Expect(err).To(BeNil())
	return wf
}

func createTransition(env *testEnv, workflowID, from, to types.ID, roles ...types.ID) *domain.WorkflowTransition {
	t, err := env.manager.CreateTransition(ctx, &domain.TransitionCreation{WorkflowID: workflowID,
		FromStatusID: from, ToStatusID: to, Initial: from == 0, RoleIDs: roles}, admin)
	Expect(err).To(BeNil())
	return t
}
