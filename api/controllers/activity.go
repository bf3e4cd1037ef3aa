package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/replyflow-backend/api/responses"
	"github.com/angelmondragon/replyflow-backend/api/validators"
	"github.com/angelmondragon/replyflow-backend/internal/activity"
	"github.com/angelmondragon/replyflow-backend/internal/dispatch"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

// Cursors are base64 of a timestamp and uuid; anything longer is garbage.
const maxCursorLen = 256

// ListActivity returns the caller's action timeline, newest first.
func ListActivity(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := activity.ListParams{
			OwnerUserID: userID,
			Limit:       limit,
			Cursor:      validators.SanitizeString(r.URL.Query().Get("cursor"), maxCursorLen),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("automationId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid automationId"))
				return
			}
			params.AutomationID = &id
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseActivityStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ListFailedEvents returns recent dead letters for the caller's accounts.
func ListFailedEvents(svc *dispatch.FailedEventService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "failed event service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListRecent(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": events})
	}
}
