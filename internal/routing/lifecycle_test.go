package routing

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/internal/accounts"
	"github.com/angelmondragon/replyflow-backend/internal/automations"
	"github.com/angelmondragon/replyflow-backend/pkg/db"
	"github.com/angelmondragon/replyflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

type fixture struct {
	conn        *gorm.DB
	routes      Repository
	automations automations.Repository
	engine      *fakeEngine
	manager     *LifecycleManager
	owner       uuid.UUID
	automation  *models.Automation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	ctx := context.Background()

	accountRepo := accounts.NewRepository(conn)
	automationRepo := automations.NewRepository(conn)
	routes := NewRepository(conn)
	engine := &fakeEngine{}

	owner := uuid.New()
	account := &models.SocialAccount{OwnerUserID: owner, Platform: enums.PlatformInstagram, ExternalID: "ig_1", AccessToken: "tok"}
	require.NoError(t, accountRepo.Create(ctx, account))

	ref := "wf_" + uuid.NewString()
	automation := &models.Automation{
		OwnerUserID:   owner,
		AccountID:     account.ID,
		Name:          "dm replies",
		TriggerType:   enums.TriggerTypeUserDirectedMessages,
		TriggerConfig: types.JSON(`{"messagesType":"all"}`),
		Actions:       types.JSON(`[{"type":"send_dm","message":"hi"}]`),
		Status:        enums.AutomationStatusInactive,
		WorkflowRef:   &ref,
	}
	require.NoError(t, automationRepo.Create(ctx, automation))

	manager, err := NewLifecycleManager(routes, automationRepo, accountRepo, engine, db.Wrap(conn),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)

	return &fixture{
		conn:        conn,
		routes:      routes,
		automations: automationRepo,
		engine:      engine,
		manager:     manager,
		owner:       owner,
		automation:  automation,
	}
}

func (f *fixture) ref() string { return *f.automation.WorkflowRef }

func TestActivateUpsertsActiveRouteAndCallsEngine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.Activate(ctx, f.owner, f.ref()))

	routes, err := f.routes.ListByWorkflowRef(ctx, f.ref())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].IsActive)
	assert.Equal(t, "ig_1", routes[0].AccountID)
	assert.Equal(t, enums.EventTypeMessaging, routes[0].EventType)
	require.NotNil(t, routes[0].SubType)
	assert.Equal(t, enums.SubTypeMessage, *routes[0].SubType)
	assert.Equal(t, []string{"activate:" + f.ref()}, f.engine.calls)

	automation, err := f.automations.GetByID(ctx, f.automation.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AutomationStatusActive, automation.Status)

	// activating twice keeps a single route
	require.NoError(t, f.manager.Activate(ctx, f.owner, f.ref()))
	routes, err = f.routes.ListByWorkflowRef(ctx, f.ref())
	require.NoError(t, err)
	assert.Len(t, routes, 1)
}

func TestActivateEngineFailureLeavesRouteActive(t *testing.T) {
	f := newFixture(t)
	f.engine.activateErr = errors.New("engine unavailable")
	ctx := context.Background()

	err := f.manager.Activate(ctx, f.owner, f.ref())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	routes, err := f.routes.ListByWorkflowRef(ctx, f.ref())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].IsActive)
}

func TestDeactivateIsBestEffortOnEngine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Activate(ctx, f.owner, f.ref()))

	f.engine.deactivateErr = errors.New("engine timeout")
	require.NoError(t, f.manager.Deactivate(ctx, f.owner, f.ref()))

	routes, err := f.routes.ListByWorkflowRef(ctx, f.ref())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.False(t, routes[0].IsActive)

	resolved, err := f.routes.Resolve(ctx, "ig_1", enums.EventTypeMessaging, enums.SubTypeMessage)
	require.NoError(t, err)
	assert.Empty(t, resolved)

	automation, err := f.automations.GetByID(ctx, f.automation.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AutomationStatusInactive, automation.Status)
}

func TestLifecycleOwnershipChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := uuid.New()

	err := f.manager.Activate(ctx, stranger, f.ref())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = f.manager.Deactivate(ctx, stranger, f.ref())
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = f.manager.Delete(ctx, stranger, f.automation.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = f.manager.Activate(ctx, f.owner, "missing")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = f.manager.Activate(ctx, f.owner, " ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = f.manager.Delete(ctx, f.owner, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	assert.Empty(t, f.engine.calls, "no engine calls before ownership is proven")
}

func TestDeleteRemovesAutomationAndRoutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Activate(ctx, f.owner, f.ref()))

	require.NoError(t, f.manager.Delete(ctx, f.owner, f.automation.ID))

	routes, err := f.routes.ListByWorkflowRef(ctx, f.ref())
	require.NoError(t, err)
	assert.Empty(t, routes)

	_, err = f.automations.GetByID(ctx, f.automation.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Contains(t, f.engine.calls, "deactivate:"+f.ref())
}

func TestActivateWithoutEngine(t *testing.T) {
	f := newFixture(t)
	f.manager.engine = nil

	require.NoError(t, f.manager.Activate(context.Background(), f.owner, f.ref()))
	assert.Empty(t, f.engine.calls)
}

type fakeEngine struct {
	mu            sync.Mutex
	calls         []string
	activateErr   error
	deactivateErr error
	executeErr    error
}

func (f *fakeEngine) Execute(_ context.Context, ref string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "execute:"+ref)
	return f.executeErr
}

func (f *fakeEngine) Activate(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "activate:"+ref)
	return f.activateErr
}

func (f *fakeEngine) Deactivate(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "deactivate:"+ref)
	return f.deactivateErr
}
