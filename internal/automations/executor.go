package automations

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/graph"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// Messenger is the outbound messaging surface.
type Messenger interface {
	Send(ctx context.Context, accessToken, recipientID string, message graph.Message) (*graph.SendResult, error)
	ReplyToComment(ctx context.Context, accessToken, commentID, text string) (string, error)
}

// ActivityRecorder persists one row per action attempt.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
}

// Outcome is the result of running a single action.
type Outcome struct {
	ActionType enums.ActionType
	Status     enums.ActivityStatus
	Text       string
	MessageID  string
	Err        error
}

type Executor struct {
	messenger   Messenger
	recorder    ActivityRecorder
	picker      *TemplatePicker
	calendarURL string
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
	now         func() time.Time
}

type ExecutorOption func(*Executor)

// WithRand injects the randomness used for template selection.
func WithRand(rng *rand.Rand) ExecutorOption {
	return func(e *Executor) {
		e.picker = NewTemplatePicker(rng)
	}
}

// WithCalendarURL sets the booking page calendar buttons link to.
func WithCalendarURL(url string) ExecutorOption {
	return func(e *Executor) {
		e.calendarURL = url
	}
}

func WithMetrics(m *metrics.PipelineMetrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

func NewExecutor(messenger Messenger, recorder ActivityRecorder, logg *logger.Logger, opts ...ExecutorOption) (*Executor, error) {
	if messenger == nil {
		return nil, fmt.Errorf("messenger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	e := &Executor{
		messenger: messenger,
		recorder:  recorder,
		logg:      logg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.picker == nil {
		e.picker = NewTemplatePicker(nil)
	}
	return e, nil
}

// Execute runs def's actions in order. Every action is attempted and recorded
// no matter how earlier actions fared.
func (e *Executor) Execute(ctx context.Context, def Definition, account models.SocialAccount, ev meta.InboundEvent) []Outcome {
	outcomes := make([]Outcome, 0, len(def.Actions))
	for _, action := range def.Actions {
		outcome := e.run(ctx, action, account, ev)
		e.metrics.IncAction(string(outcome.ActionType), string(outcome.Status))
		e.record(ctx, def, ev, outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (e *Executor) run(ctx context.Context, action Action, account models.SocialAccount, ev meta.InboundEvent) (out Outcome) {
	out.ActionType = action.ActionType()
	defer func() {
		if r := recover(); r != nil {
			out.Status = enums.ActivityStatusFailed
			out.Err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	var (
		msgID string
		err   error
	)
	switch a := action.(type) {
	case ReplyToComment:
		tpl, _ := e.picker.Pick(a.Templates)
		out.Text = RenderText(tpl, ev.Sender.Username)
		if ev.CommentID != "" {
			msgID, err = e.messenger.ReplyToComment(ctx, account.AccessToken, ev.CommentID, out.Text)
		} else {
			msgID, err = e.send(ctx, account, ev, BuildMessage(out.Text, a.Buttons, e.calendarURL))
		}
	case SendDM:
		tpl, ok := e.picker.Pick(a.Templates)
		if !ok {
			tpl = a.Message
		}
		out.Text = RenderText(tpl, ev.Sender.Username)
		msgID, err = e.send(ctx, account, ev, BuildMessage(out.Text, a.Buttons, e.calendarURL))
	case AskToFollow:
		out.Text = RenderText(a.Message, ev.Sender.Username)
		msgID, err = e.send(ctx, account, ev, BuildMessage(out.Text, []Button{followButton(a.FollowButtonText)}, e.calendarURL))
	default:
		err = fmt.Errorf("unsupported action %T", action)
	}

	if err != nil {
		out.Status = enums.ActivityStatusFailed
		out.Err = err
		return out
	}
	out.Status = enums.ActivityStatusSuccess
	out.MessageID = msgID
	return out
}

func (e *Executor) send(ctx context.Context, account models.SocialAccount, ev meta.InboundEvent, msg graph.Message) (string, error) {
	if ev.Sender.ID == "" {
		return "", fmt.Errorf("event %s has no sender to message", ev.EventID)
	}
	res, err := e.messenger.Send(ctx, account.AccessToken, ev.Sender.ID, msg)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return res.MessageID, nil
}

func (e *Executor) record(ctx context.Context, def Definition, ev meta.InboundEvent, outcome Outcome) {
	automationID := def.Automation.ID
	metadata := types.Metadata{"event_id": ev.EventID}
	if outcome.MessageID != "" {
		metadata["message_id"] = outcome.MessageID
	}
	if outcome.Err != nil {
		metadata["error"] = outcome.Err.Error()
	}
	var message *string
	if outcome.Text != "" {
		text := outcome.Text
		message = &text
	}

	entry := &models.ActivityLog{
		AutomationID:   &automationID,
		AccountID:      ev.AccountID,
		TargetUsername: ev.Sender.Username,
		TargetID:       ev.Sender.ID,
		ActionType:     outcome.ActionType,
		Message:        message,
		Status:         outcome.Status,
		Metadata:       metadata,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		e.logg.Error(ctx, "activity.record_failed", err)
	}
}
