package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// AccountLister returns the external ids of the accounts a user owns.
type AccountLister interface {
	ListExternalIDsByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]string, error)
}

// FailedEvent is the dead letter view returned to the dashboard.
type FailedEvent struct {
	ID           uuid.UUID  `json:"id"`
	EventID      string     `json:"event_id"`
	AccountID    string     `json:"account_id"`
	WorkflowRef  string     `json:"workflow_ref"`
	Payload      types.JSON `json:"payload"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
}

// FailedEventService lists dead letters for the caller's accounts.
type FailedEventService struct {
	repo     *DLQRepository
	accounts AccountLister
}

func NewFailedEventService(repo *DLQRepository, accounts AccountLister) (*FailedEventService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dead letter repository required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "account lister required")
	}
	return &FailedEventService{repo: repo, accounts: accounts}, nil
}

func (s *FailedEventService) ListRecent(ctx context.Context, ownerUserID uuid.UUID, limit int) ([]FailedEvent, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	accountIDs, err := s.accounts.ListExternalIDsByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	out := []FailedEvent{}
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := s.repo.ListForAccounts(ctx, accountIDs, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list failed events")
	}
	for _, row := range rows {
		out = append(out, FailedEvent{
			ID:           row.ID,
			EventID:      row.EventID,
			AccountID:    row.AccountID,
			WorkflowRef:  row.WorkflowRef,
			Payload:      row.Payload,
			ErrorMessage: row.ErrorMessage,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
