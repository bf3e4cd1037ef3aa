package automations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/graph"
)

func TestExecutorRecordsGraphFailureDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"(#551) This person isn't available right now.","code":551}}`))
	}))
	defer srv.Close()

	client := graph.NewClient(graph.WithBaseURL(srv.URL))
	recorder := &fakeRecorder{}
	exec, err := NewExecutor(client, recorder, testLogger())
	require.NoError(t, err)

	def := Definition{
		Automation: models.Automation{ID: uuid.New()},
		Actions:    []Action{SendDM{Message: "hello"}},
	}

	outcomes := exec.Execute(context.Background(), def, models.SocialAccount{AccessToken: "tok"}, dmEvent("hi", false))
	require.Len(t, outcomes, 1)
	assert.Equal(t, enums.ActivityStatusFailed, outcomes[0].Status)

	require.Len(t, recorder.entries, 1)
	msg, ok := recorder.entries[0].Metadata["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, "graph request failed")
	assert.Contains(t, msg, "status 400")
	assert.Contains(t, msg, "(#551)")
}
