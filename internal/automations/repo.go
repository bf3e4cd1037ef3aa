package automations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// Repository exposes automation persistence helpers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, automation *models.Automation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Automation, error)
	GetByWorkflowRef(ctx context.Context, workflowRef string) (*models.Automation, error)
	ListActiveForAccount(ctx context.Context, accountID uuid.UUID, triggerTypes []enums.TriggerType) ([]models.Automation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AutomationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an automations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, automation *models.Automation) error {
	return r.db.WithContext(ctx).Create(automation).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Automation, error) {
	var automation models.Automation
	if err := r.db.WithContext(ctx).First(&automation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &automation, nil
}

func (r *repositoryImpl) GetByWorkflowRef(ctx context.Context, workflowRef string) (*models.Automation, error) {
	var automation models.Automation
	if err := r.db.WithContext(ctx).Where("workflow_ref = ?", workflowRef).First(&automation).Error; err != nil {
		return nil, err
	}
	return &automation, nil
}

func (r *repositoryImpl) ListActiveForAccount(ctx context.Context, accountID uuid.UUID, triggerTypes []enums.TriggerType) ([]models.Automation, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, enums.AutomationStatusActive)
	if len(triggerTypes) > 0 {
		query = query.Where("trigger_type IN ?", triggerTypes)
	}
	var rows []models.Automation
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AutomationStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Automation{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Automation{}, "id = ?", id).Error
}
