package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authed(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID.String()))
}

func TestActivateRoute(t *testing.T) {
	svc := &fakeLifecycle{}
	userID := uuid.New()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/automations/routes/activate", strings.NewReader(`{"workflow_ref":"wf_1"}`)), userID)
	rec := httptest.NewRecorder()
	ActivateRoute(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"success":true}}`, rec.Body.String())
	assert.Equal(t, []string{"activate:wf_1"}, svc.calls)
	assert.Equal(t, userID, svc.userID)
}

func TestDeactivateRouteMapsServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"forbidden": {pkgerrors.New(pkgerrors.CodeForbidden, "not yours"), http.StatusForbidden},
		"missing":   {pkgerrors.New(pkgerrors.CodeNotFound, "no automation"), http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeLifecycle{err: tc.err}
			req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workflow_ref":"wf_1"}`)), uuid.New())
			rec := httptest.NewRecorder()
			DeactivateRoute(svc, testLogger()).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestToggleRouteValidatesBody(t *testing.T) {
	svc := &fakeLifecycle{}
	for _, body := range []string{`{}`, `{"workflow_ref":"wf","extra":1}`, `not json`} {
		req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), uuid.New())
		rec := httptest.NewRecorder()
		ActivateRoute(svc, testLogger()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, svc.calls)
}

func TestToggleRouteRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workflow_ref":"wf"}`))
	rec := httptest.NewRecorder()
	ActivateRoute(&fakeLifecycle{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteAutomation(t *testing.T) {
	svc := &fakeLifecycle{}
	router := chi.NewRouter()
	router.Delete("/api/v1/automations/{automationId}", DeleteAutomation(svc, testLogger()))

	id := uuid.New()
	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/automations/"+id.String(), nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"delete:" + id.String()}, svc.calls)

	req = authed(httptest.NewRequest(http.MethodDelete, "/api/v1/automations/not-a-uuid", nil), uuid.New())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeLifecycle struct {
	calls  []string
	userID uuid.UUID
	err    error
}

func (f *fakeLifecycle) Activate(_ context.Context, userID uuid.UUID, ref string) error {
	f.calls = append(f.calls, "activate:"+ref)
	f.userID = userID
	return f.err
}

func (f *fakeLifecycle) Deactivate(_ context.Context, userID uuid.UUID, ref string) error {
	f.calls = append(f.calls, "deactivate:"+ref)
	f.userID = userID
	return f.err
}

func (f *fakeLifecycle) Delete(_ context.Context, userID, automationID uuid.UUID) error {
	f.calls = append(f.calls, "delete:"+automationID.String())
	f.userID = userID
	return f.err
}
