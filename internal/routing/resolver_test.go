package routing

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

func strPtr(s string) *string { return &s }

func TestResolveMatchesExactAndWildcardSubTypes(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seed := []models.AutomationRoute{
		{AccountID: "acct", EventType: enums.EventTypeMessaging, SubType: strPtr("message"), WorkflowRef: "exact", IsActive: true},
		{AccountID: "acct", EventType: enums.EventTypeMessaging, SubType: nil, WorkflowRef: "wildcard", IsActive: true},
		{AccountID: "acct", EventType: enums.EventTypeMessaging, SubType: strPtr("postback"), WorkflowRef: "other-sub", IsActive: true},
		{AccountID: "acct", EventType: enums.EventTypeMessaging, SubType: strPtr("message"), WorkflowRef: "inactive", IsActive: false},
		{AccountID: "acct", EventType: enums.EventTypeChanges, SubType: strPtr("comments"), WorkflowRef: "changes", IsActive: true},
		{AccountID: "other", EventType: enums.EventTypeMessaging, SubType: strPtr("message"), WorkflowRef: "other-acct", IsActive: true},
	}
	for i := range seed {
		require.NoError(t, repo.Upsert(ctx, &seed[i]))
	}

	resolver, err := NewResolver(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)

	routes, err := resolver.Resolve(ctx, "acct", enums.EventTypeMessaging, "message")
	require.NoError(t, err)
	refs := make([]string, 0, len(routes))
	for _, r := range routes {
		refs = append(refs, r.WorkflowRef)
	}
	assert.ElementsMatch(t, []string{"exact", "wildcard"}, refs)

	routes, err = resolver.Resolve(ctx, "nobody", enums.EventTypeMessaging, "message")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestUpsertReactivatesExistingShape(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	route := models.AutomationRoute{AccountID: "acct", EventType: enums.EventTypeChanges, SubType: strPtr("comments"), WorkflowRef: "wf"}
	require.NoError(t, repo.Upsert(ctx, &route))

	again := models.AutomationRoute{AccountID: "acct", EventType: enums.EventTypeChanges, SubType: strPtr("comments"), WorkflowRef: "wf", IsActive: true}
	require.NoError(t, repo.Upsert(ctx, &again))

	routes, err := repo.ListByWorkflowRef(ctx, "wf")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].IsActive)

	affected, err := repo.SetActive(ctx, "wf", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestNewResolverRequiresDependencies(t *testing.T) {
	_, err := NewResolver(nil, nil)
	assert.Error(t, err)
}
