package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/pagination"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// AccountLister returns the external ids of the accounts a user owns.
type AccountLister interface {
	ListExternalIDsByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]string, error)
}

// Service records action attempts and serves the activity timeline.
type Service interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo     Repository
	accounts AccountLister
}

type ListParams struct {
	OwnerUserID  uuid.UUID
	AutomationID *uuid.UUID
	Status       *enums.ActivityStatus
	Limit        int
	Cursor       string
}

// Item is the timeline representation of an activity row.
type Item struct {
	ID             uuid.UUID            `json:"id"`
	AutomationID   *uuid.UUID           `json:"automation_id,omitempty"`
	AccountID      string               `json:"account_id"`
	TargetUsername string               `json:"target_username"`
	TargetID       string               `json:"target_id,omitempty"`
	ActionType     enums.ActionType     `json:"action_type"`
	Message        *string              `json:"message,omitempty"`
	Status         enums.ActivityStatus `json:"status"`
	Metadata       types.Metadata       `json:"metadata,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

type ListResult struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

// NewService wires activity dependencies.
func NewService(repo Repository, accounts AccountLister) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "account lister required")
	}
	return &service{repo: repo, accounts: accounts}, nil
}

// Record appends one row. Missing timestamps and statuses are filled in.
func (s *service) Record(ctx context.Context, entry *models.ActivityLog) error {
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity entry required")
	}
	if !entry.ActionType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid action type")
	}
	if entry.Status == "" {
		entry.Status = enums.ActivityStatusPending
	}
	if !entry.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid activity status")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert activity log")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.OwnerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}

	accountIDs, err := s.accounts.ListExternalIDsByOwner(ctx, params.OwnerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	if len(accountIDs) == 0 {
		return &ListResult{Items: []Item{}}, nil
	}

	query := listParams{
		AccountIDs:   accountIDs,
		AutomationID: params.AutomationID,
		Status:       params.Status,
		Limit:        params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			ID:             row.ID,
			AutomationID:   row.AutomationID,
			AccountID:      row.AccountID,
			TargetUsername: row.TargetUsername,
			TargetID:       row.TargetID,
			ActionType:     row.ActionType,
			Message:        row.Message,
			Status:         row.Status,
			Metadata:       row.Metadata,
			CreatedAt:      row.CreatedAt,
		})
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}
