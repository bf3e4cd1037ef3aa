package ledger

import (
	"context"
	"time"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists processed-event ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, event *models.ProcessedEvent) error
	CountSince(ctx context.Context, accountID string, since time.Time) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Insert is a plain INSERT; callers rely on the unique constraint to reject
// replays.
func (r *repositoryImpl) Insert(ctx context.Context, event *models.ProcessedEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) CountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedEvent{}).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Count(&count).Error
	return count, err
}

// DeleteBefore prunes rows older than cutoff.
func (r *repositoryImpl) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ProcessedEvent{})
	return res.RowsAffected, res.Error
}
