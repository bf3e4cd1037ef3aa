package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/replyflow-backend/internal/automations"
	"github.com/angelmondragon/replyflow-backend/internal/ledger"
	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

type RouteResolver interface {
	Resolve(ctx context.Context, accountID string, eventType enums.EventType, subType string) ([]models.AutomationRoute, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev meta.InboundEvent, routes []models.AutomationRoute) error
}

type DirectExecutor interface {
	HandleEvent(ctx context.Context, ev meta.InboundEvent) (automations.Result, error)
}

// Pipeline takes one delivery entry from normalization through admission to
// execution. Nothing it does is reported back to the webhook sender.
type Pipeline struct {
	ledger     ledger.Ledger
	limiter    ledger.RateLimiter
	resolver   RouteResolver
	dispatcher Dispatcher
	direct     DirectExecutor
	metrics    *metrics.PipelineMetrics
	logg       *logger.Logger
}

type Option func(*Pipeline)

// WithDispatch enables the workflow engine path.
func WithDispatch(resolver RouteResolver, dispatcher Dispatcher) Option {
	return func(p *Pipeline) {
		p.resolver = resolver
		p.dispatcher = dispatcher
	}
}

// WithDirectExecution enables in-process automation execution.
func WithDirectExecution(direct DirectExecutor) Option {
	return func(p *Pipeline) {
		p.direct = direct
	}
}

func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func New(l ledger.Ledger, limiter ledger.RateLimiter, logg *logger.Logger, opts ...Option) (*Pipeline, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	p := &Pipeline{ledger: l, limiter: limiter, logg: logg}
	for _, opt := range opts {
		opt(p)
	}
	if (p.resolver == nil) != (p.dispatcher == nil) {
		return nil, fmt.Errorf("dispatch needs both a resolver and a dispatcher")
	}
	if p.dispatcher == nil && p.direct == nil {
		return nil, fmt.Errorf("at least one of dispatch or direct execution must be enabled")
	}
	return p, nil
}

// Report counts what happened to the events of one entry.
type Report struct {
	Events      int
	Skipped     int
	Duplicates  int
	RateLimited int
	Admitted    int
	Failed      int
}

// Process normalizes entry and runs each resulting event through the gates.
func (p *Pipeline) Process(ctx context.Context, platform enums.Platform, entry meta.Entry, receivedAt time.Time) Report {
	start := time.Now()
	defer func() { p.metrics.ObserveProcess(time.Since(start)) }()

	ctx = p.logg.WithAccountID(ctx, entry.ID)
	events, err := meta.Normalize(platform, entry, receivedAt)
	if err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "event.normalize_skipped")
	}

	report := Report{Events: len(events)}
	for _, ev := range events {
		p.processEvent(ctx, ev, &report)
	}
	return report
}

func (p *Pipeline) processEvent(ctx context.Context, ev meta.InboundEvent, report *Report) {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"event_id":   ev.EventID,
		"event_type": string(ev.EventType),
		"sub_type":   ev.SubType,
	})

	if ev.SubType == enums.SubTypeEcho || ev.SelfAuthored() {
		report.Skipped++
		p.metrics.IncAdmission("skipped")
		p.logg.Debug(ctx, "event.self_authored")
		return
	}

	admission, err := p.ledger.Admit(ctx, ev.EventID, ev.AccountID)
	if err != nil {
		report.Failed++
		p.metrics.IncAdmission("error")
		p.logg.Error(ctx, "ledger.admit_failed", err)
		return
	}
	if admission == ledger.Duplicate {
		report.Duplicates++
		p.metrics.IncAdmission("duplicate")
		p.logg.Info(ctx, "event.duplicate")
		return
	}

	allowed, err := p.limiter.Allow(ctx, ev.AccountID)
	if err != nil {
		// the event is already in the ledger; dropping it here would lose it for good
		p.logg.Error(ctx, "ratelimit.check_failed", err)
		allowed = true
	}
	if !allowed {
		report.RateLimited++
		p.metrics.IncAdmission("rate_limited")
		p.logg.Warn(ctx, "event.rate_limited")
		return
	}

	report.Admitted++
	p.metrics.IncAdmission("admitted")

	if p.dispatcher != nil {
		p.dispatch(ctx, ev)
	}
	if p.direct != nil {
		if _, err := p.direct.HandleEvent(ctx, ev); err != nil {
			p.logg.Error(ctx, "automation.execute_failed", err)
		}
	}
}

func (p *Pipeline) dispatch(ctx context.Context, ev meta.InboundEvent) {
	routes, err := p.resolver.Resolve(ctx, ev.AccountID, ev.EventType, ev.SubType)
	if err != nil {
		p.logg.Error(ctx, "route.resolve_failed", err)
		return
	}
	if len(routes) == 0 {
		return
	}
	if err := p.dispatcher.Dispatch(ctx, ev, routes); err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "dispatch.partial_failure")
	}
}
