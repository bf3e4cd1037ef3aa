package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/replyflow-backend/api/responses"
	"github.com/angelmondragon/replyflow-backend/api/validators"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

// RouteLifecycle is implemented by routing.LifecycleManager.
type RouteLifecycle interface {
	Activate(ctx context.Context, userID uuid.UUID, workflowRef string) error
	Deactivate(ctx context.Context, userID uuid.UUID, workflowRef string) error
	Delete(ctx context.Context, userID, automationID uuid.UUID) error
}

type routeToggleRequest struct {
	WorkflowRef string `json:"workflow_ref" validate:"required"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// ActivateRoute marks the caller's automation live and registers it with the
// workflow engine.
func ActivateRoute(svc RouteLifecycle, logg *logger.Logger) http.HandlerFunc {
	return toggleRoute(svc, logg, func(ctx context.Context, userID uuid.UUID, ref string) error {
		return svc.Activate(ctx, userID, ref)
	})
}

// DeactivateRoute stops routing events to the caller's automation.
func DeactivateRoute(svc RouteLifecycle, logg *logger.Logger) http.HandlerFunc {
	return toggleRoute(svc, logg, func(ctx context.Context, userID uuid.UUID, ref string) error {
		return svc.Deactivate(ctx, userID, ref)
	})
}

func toggleRoute(svc RouteLifecycle, logg *logger.Logger, apply func(context.Context, uuid.UUID, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route lifecycle unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req routeToggleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref := strings.TrimSpace(req.WorkflowRef)
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWorkflowRef(ctx, ref)
		}
		if err := apply(ctx, userID, ref); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

// DeleteAutomation removes an automation and its routes.
func DeleteAutomation(svc RouteLifecycle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route lifecycle unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		automationID, err := uuid.Parse(chi.URLParam(r, "automationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid automation id"))
			return
		}

		if err := svc.Delete(r.Context(), userID, automationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}
