package dispatch

import (
	"context"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
)

const (
	maxDLQErrorLen  = 1024
	defaultDLQLimit = 50
	maxDLQLimit     = 200
)

// DLQRepository stores failed dispatches. Rows are append-only.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) Insert(ctx context.Context, entry *models.FailedEvent) error {
	entry.ErrorMessage = truncateDLQError(entry.ErrorMessage)
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListForAccounts returns the newest dead letters for the given accounts.
func (r *DLQRepository) ListForAccounts(ctx context.Context, accountIDs []string, limit int) ([]models.FailedEvent, error) {
	if limit <= 0 {
		limit = defaultDLQLimit
	}
	if limit > maxDLQLimit {
		limit = maxDLQLimit
	}
	var rows []models.FailedEvent
	err := r.db.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// DeleteBefore prunes dead letters older than cutoff.
func (r *DLQRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.FailedEvent{})
	return res.RowsAffected, res.Error
}

func truncateDLQError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	cut := message[:maxDLQErrorLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
