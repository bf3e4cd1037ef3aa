package automations

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

// AccountLookup resolves the linked account an event was delivered for.
type AccountLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.SocialAccount, error)
}

// Result summarises direct execution for one event.
type Result struct {
	Matched  int
	Outcomes []Outcome
}

// Service runs matching automations in-process for admitted events.
type Service struct {
	repo     Repository
	accounts AccountLookup
	executor *Executor
	logg     *logger.Logger
}

func NewService(repo Repository, accounts AccountLookup, executor *Executor, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("automations repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account lookup required")
	}
	if executor == nil {
		return nil, fmt.Errorf("executor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, accounts: accounts, executor: executor, logg: logg}, nil
}

// HandleEvent loads the account's active automations for the event's shape,
// keeps those whose trigger matches, and executes them. Unmatched automations
// are skipped silently.
func (s *Service) HandleEvent(ctx context.Context, ev meta.InboundEvent) (Result, error) {
	var result Result
	triggerTypes := TriggerTypesFor(ev)
	if len(triggerTypes) == 0 || ev.SubType == enums.SubTypeEcho || ev.SelfAuthored() {
		return result, nil
	}

	account, err := s.accounts.GetByExternalID(ctx, ev.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "account.unknown")
			return result, nil
		}
		return result, fmt.Errorf("load account: %w", err)
	}

	rows, err := s.repo.ListActiveForAccount(ctx, account.ID, triggerTypes)
	if err != nil {
		return result, fmt.Errorf("list automations: %w", err)
	}

	for _, row := range rows {
		def, err := Decode(row)
		if err != nil {
			s.logg.Error(ctx, "automation.invalid", err)
			continue
		}
		if !Matches(def, ev) {
			continue
		}
		result.Matched++
		outcomes := s.executor.Execute(ctx, def, *account, ev)
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				actx := s.logg.WithFields(ctx, map[string]any{
					"automation_id": def.Automation.ID.String(),
					"action_type":   string(outcome.ActionType),
				})
				s.logg.Error(actx, "action.failed", outcome.Err)
			}
		}
		result.Outcomes = append(result.Outcomes, outcomes...)
	}

	if result.Matched == 0 {
		s.logg.Debug(ctx, "automation.none")
	}
	return result, nil
}
