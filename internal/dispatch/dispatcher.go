package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
	"github.com/angelmondragon/replyflow-backend/pkg/workflow"
)

// DeadLetterWriter persists dispatches that did not succeed.
type DeadLetterWriter interface {
	Insert(ctx context.Context, entry *models.FailedEvent) error
}

// Dispatcher hands an event to the workflow engine once per resolved route.
type Dispatcher struct {
	engine  workflow.Engine
	dlq     DeadLetterWriter
	metrics *metrics.PipelineMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewDispatcher(engine workflow.Engine, dlq DeadLetterWriter, m *metrics.PipelineMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("workflow engine required")
	}
	if dlq == nil {
		return nil, fmt.Errorf("dead letter writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{engine: engine, dlq: dlq, metrics: m, logg: logg, now: time.Now}, nil
}

// Dispatch executes every route independently. A failed route is written to
// the dead letter table and does not stop the others. The returned error
// aggregates route failures for logging; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, ev meta.InboundEvent, routes []models.AutomationRoute) error {
	var errs error
	for _, route := range routes {
		rctx := d.logg.WithWorkflowRef(ctx, route.WorkflowRef)
		err := d.engine.Execute(rctx, route.WorkflowRef, ev)
		if err == nil {
			d.metrics.IncDispatch("success")
			continue
		}

		d.metrics.IncDispatch("failed")
		d.logg.Error(rctx, "dispatch.failed", err)
		errs = multierr.Append(errs, fmt.Errorf("route %s: %w", route.WorkflowRef, err))

		if dlqErr := d.deadLetter(rctx, ev, route, err); dlqErr != nil {
			d.logg.Error(rctx, "dispatch.dead_letter_failed", dlqErr)
			errs = multierr.Append(errs, dlqErr)
		}
	}
	return errs
}

func (d *Dispatcher) deadLetter(ctx context.Context, ev meta.InboundEvent, route models.AutomationRoute, cause error) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode failed event: %w", err)
	}
	entry := &models.FailedEvent{
		EventID:      ev.EventID,
		AccountID:    ev.AccountID,
		WorkflowRef:  route.WorkflowRef,
		Payload:      types.JSON(payload),
		ErrorMessage: cause.Error(),
		CreatedAt:    d.now().UTC(),
	}
	if err := d.dlq.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert failed event: %w", err)
	}
	return nil
}
