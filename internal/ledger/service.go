package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/replyflow-backend/pkg/db"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
)

const processedEventsConstraint = "processed_events_event_account_key"

// Admission is the outcome of offering an event to the ledger.
type Admission string

const (
	Admitted  Admission = "admitted"
	Duplicate Admission = "duplicate"
)

// Ledger records which (event, account) pairs have been admitted.
type Ledger interface {
	Admit(ctx context.Context, eventID, accountID string) (Admission, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Admit performs a single insert. A unique violation means the pair was
// already admitted; any other error is returned untouched.
func (s *service) Admit(ctx context.Context, eventID, accountID string) (Admission, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(accountID) == "" {
		return "", fmt.Errorf("account id is required")
	}

	row := &models.ProcessedEvent{
		EventID:   eventID,
		AccountID: accountID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		if db.IsUniqueViolation(err, processedEventsConstraint) {
			return Duplicate, nil
		}
		return "", fmt.Errorf("insert processed event: %w", err)
	}
	return Admitted, nil
}
