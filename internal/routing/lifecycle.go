package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/internal/automations"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/workflow"
)

// AccountStore loads the account an automation belongs to.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SocialAccount, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LifecycleManager moves automations between active, inactive and deleted,
// keeping routes and the workflow engine in step. The route flag, not the
// engine, decides whether events are routed.
type LifecycleManager struct {
	routes      Repository
	automations automations.Repository
	accounts    AccountStore
	engine      workflow.Engine
	tx          txRunner
	logg        *logger.Logger
}

// NewLifecycleManager wires the manager. engine may be nil when no workflow
// engine is configured; engine calls are then skipped.
func NewLifecycleManager(routes Repository, automationRepo automations.Repository, accounts AccountStore, engine workflow.Engine, tx txRunner, logg *logger.Logger) (*LifecycleManager, error) {
	if routes == nil {
		return nil, fmt.Errorf("routes repository required")
	}
	if automationRepo == nil {
		return nil, fmt.Errorf("automations repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LifecycleManager{
		routes:      routes,
		automations: automationRepo,
		accounts:    accounts,
		engine:      engine,
		tx:          tx,
		logg:        logg,
	}, nil
}

// Activate upserts the route as active before asking the engine to activate.
// An engine failure leaves the route active and is returned to the caller.
func (m *LifecycleManager) Activate(ctx context.Context, userID uuid.UUID, workflowRef string) error {
	automation, err := m.ownedByRef(ctx, userID, workflowRef)
	if err != nil {
		return err
	}
	ctx = m.logg.WithWorkflowRef(ctx, automation.WorkflowRefValue())

	account, err := m.accounts.GetByID(ctx, automation.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "linked account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	eventType, subType, err := automation.TriggerType.RouteShape()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "derive route shape")
	}

	automationID := automation.ID
	route := &models.AutomationRoute{
		AccountID:    account.ExternalID,
		EventType:    eventType,
		SubType:      &subType,
		WorkflowRef:  strings.TrimSpace(workflowRef),
		AutomationID: &automationID,
		IsActive:     true,
	}
	if err := m.routes.Upsert(ctx, route); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert route")
	}
	if err := m.automations.UpdateStatus(ctx, automation.ID, enums.AutomationStatusActive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark automation active")
	}

	if m.engine != nil {
		if err := m.engine.Activate(ctx, route.WorkflowRef); err != nil {
			m.logg.Error(ctx, "workflow.activate_failed", err)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate workflow")
		}
	}
	m.logg.Info(ctx, "route.activated")
	return nil
}

// Deactivate tells the engine first, best-effort, then flags routes inactive.
func (m *LifecycleManager) Deactivate(ctx context.Context, userID uuid.UUID, workflowRef string) error {
	automation, err := m.ownedByRef(ctx, userID, workflowRef)
	if err != nil {
		return err
	}
	ref := strings.TrimSpace(workflowRef)
	ctx = m.logg.WithWorkflowRef(ctx, ref)

	m.deactivateEngine(ctx, ref)

	if _, err := m.routes.SetActive(ctx, ref, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate route")
	}
	if err := m.automations.UpdateStatus(ctx, automation.ID, enums.AutomationStatusInactive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark automation inactive")
	}
	m.logg.Info(ctx, "route.deactivated")
	return nil
}

// Delete removes the automation and its routes in one transaction after
// re-checking ownership.
func (m *LifecycleManager) Delete(ctx context.Context, userID, automationID uuid.UUID) error {
	if automationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "automation id required")
	}
	automation, err := m.automations.GetByID(ctx, automationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "automation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load automation")
	}
	if automation.OwnerUserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "automation belongs to another user")
	}

	ref := automation.WorkflowRefValue()
	if ref != "" {
		m.deactivateEngine(m.logg.WithWorkflowRef(ctx, ref), ref)
	}

	err = m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := m.routes.WithTx(tx).DeleteForAutomation(ctx, automation.ID, ref); err != nil {
			return fmt.Errorf("delete routes: %w", err)
		}
		if err := m.automations.WithTx(tx).Delete(ctx, automation.ID); err != nil {
			return fmt.Errorf("delete automation: %w", err)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete automation")
	}
	m.logg.Info(m.logg.WithField(ctx, "automation_id", automation.ID.String()), "automation.deleted")
	return nil
}

func (m *LifecycleManager) ownedByRef(ctx context.Context, userID uuid.UUID, workflowRef string) (*models.Automation, error) {
	ref := strings.TrimSpace(workflowRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workflow_ref is required")
	}
	automation, err := m.automations.GetByWorkflowRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "automation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load automation")
	}
	if automation.OwnerUserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "automation belongs to another user")
	}
	return automation, nil
}

func (m *LifecycleManager) deactivateEngine(ctx context.Context, workflowRef string) {
	if m.engine == nil {
		return
	}
	if err := m.engine.Deactivate(ctx, workflowRef); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "workflow.deactivate_failed")
	}
}
