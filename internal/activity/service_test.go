package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/internal/accounts"
	"github.com/angelmondragon/replyflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/pagination"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

func TestRecordDefaultsAndValidation(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), accounts.NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	entry := &models.ActivityLog{AccountID: "acct", ActionType: enums.ActionTypeSendDM, Metadata: types.Metadata{"event_id": "m1"}}
	require.NoError(t, svc.Record(ctx, entry))
	assert.Equal(t, enums.ActivityStatusPending, entry.Status)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NotEqual(t, uuid.Nil, entry.ID)

	err = svc.Record(ctx, &models.ActivityLog{AccountID: "acct", ActionType: "bogus"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Record(ctx, nil)
	assert.Error(t, err)
}

func TestListPagesOwnersActivityNewestFirst(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	accountRepo := accounts.NewRepository(conn)
	repo := NewRepository(conn)
	svc, err := NewService(repo, accountRepo)
	require.NoError(t, err)

	owner := uuid.New()
	require.NoError(t, accountRepo.Create(ctx, &models.SocialAccount{OwnerUserID: owner, Platform: enums.PlatformInstagram, ExternalID: "mine", AccessToken: "t"}))
	require.NoError(t, accountRepo.Create(ctx, &models.SocialAccount{OwnerUserID: uuid.New(), Platform: enums.PlatformInstagram, ExternalID: "theirs", AccessToken: "t"}))

	automationID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		status := enums.ActivityStatusSuccess
		if i == 1 {
			status = enums.ActivityStatusFailed
		}
		require.NoError(t, repo.Create(ctx, &models.ActivityLog{
			AutomationID: &automationID,
			AccountID:    "mine",
			ActionType:   enums.ActionTypeSendDM,
			Status:       status,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{AccountID: "theirs", ActionType: enums.ActionTypeSendDM, Status: enums.ActivityStatusSuccess, CreatedAt: base}))

	page, err := svc.List(ctx, ListParams{OwnerUserID: owner, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.True(t, page.Items[1].CreatedAt.Equal(base.Add(time.Minute)))
	require.NotEmpty(t, page.Cursor)

	next, err := svc.List(ctx, ListParams{OwnerUserID: owner, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.True(t, next.Items[0].CreatedAt.Equal(base))
	assert.Empty(t, next.Cursor)

	failed := enums.ActivityStatusFailed
	filtered, err := svc.List(ctx, ListParams{OwnerUserID: owner, Status: &failed})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, enums.ActivityStatusFailed, filtered.Items[0].Status)
}

func TestListWithoutAccountsIsEmpty(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, fakeLister{})
	require.NoError(t, err)

	res, err := svc.List(context.Background(), ListParams{OwnerUserID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestListValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, fakeLister{ids: []string{"a"}})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{})
	assert.Error(t, err)

	_, err = svc.List(context.Background(), ListParams{OwnerUserID: uuid.New(), Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	svc, err = NewService(&fakeRepository{}, fakeLister{err: errors.New("db")})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), ListParams{OwnerUserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, fakeLister{})
	assert.Error(t, err)
	_, err = NewService(&fakeRepository{}, nil)
	assert.Error(t, err)
}

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) ListExternalIDsByOwner(context.Context, uuid.UUID) ([]string, error) {
	return f.ids, f.err
}

type fakeRepository struct{}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Create(context.Context, *models.ActivityLog) error { return nil }

func (f *fakeRepository) List(context.Context, listParams) ([]models.ActivityLog, *pagination.Cursor, error) {
	return nil, nil, nil
}
