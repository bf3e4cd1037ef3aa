package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/internal/activity"
	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	pkgAuth "github.com/angelmondragon/replyflow-backend/pkg/auth"
	"github.com/angelmondragon/replyflow-backend/pkg/config"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubIntake struct {
	submitted int
}

func (s *stubIntake) Submit(enums.Platform, meta.Entry, time.Time) bool {
	s.submitted++
	return true
}

type stubLifecycle struct {
	activated []string
}

func (s *stubLifecycle) Activate(_ context.Context, _ uuid.UUID, ref string) error {
	s.activated = append(s.activated, ref)
	return nil
}
func (s *stubLifecycle) Deactivate(context.Context, uuid.UUID, string) error { return nil }
func (s *stubLifecycle) Delete(context.Context, uuid.UUID, uuid.UUID) error  { return nil }

type stubActivity struct{}

func (stubActivity) Record(context.Context, *models.ActivityLog) error { return nil }
func (stubActivity) List(context.Context, activity.ListParams) (*activity.ListResult, error) {
	return &activity.ListResult{Items: []activity.Item{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  config.JWTConfig{Secret: "secret", Issuer: "replyflow", ExpirationMinutes: 60},
		Meta: config.MetaConfig{AppSecret: "app-secret", VerifyToken: "verify"},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *stubIntake, *stubLifecycle) {
	t.Helper()
	reg := prometheus.NewRegistry()
	intake := &stubIntake{}
	lifecycle := &stubLifecycle{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := NewRouter(testConfig(), logg, stubPinger{}, stubPinger{}, stubSessions{}, reg,
		metrics.NewPipelineMetrics(reg), intake, lifecycle, stubActivity{}, nil)
	return router, intake, lifecycle
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterWebhookIsUnauthenticated(t *testing.T) {
	router, intake, _ := newTestRouter(t)
	body := []byte(`{"object":"page","entry":[{"id":"1","messaging":[]}]}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta", bytes.NewReader(body))
	req.Header.Set(meta.SignatureHeader, meta.Sign(body, "app-secret"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, intake.submitted)
}

func TestRouterProtectsDashboardAPI(t *testing.T) {
	router, _, lifecycle := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/activity", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/automations/routes/activate", strings.NewReader(`{"workflow_ref":"wf_1"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"wf_1"}, lifecycle.activated)
}
