package accounts

import (
	"context"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes linked social account lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.SocialAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SocialAccount, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.SocialAccount, error)
	ListExternalIDsByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, account *models.SocialAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByID returns gorm.ErrRecordNotFound when no account matches.
func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByExternalID resolves the account a delivery entry belongs to.
func (r *repositoryImpl) GetByExternalID(ctx context.Context, externalID string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repositoryImpl) ListExternalIDsByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.SocialAccount{}).
		Where("owner_user_id = ?", ownerUserID).
		Order("external_id").
		Pluck("external_id", &ids).Error
	return ids, err
}
