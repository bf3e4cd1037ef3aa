package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// Repository persists automation routes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Resolve(ctx context.Context, accountID string, eventType enums.EventType, subType string) ([]models.AutomationRoute, error)
	Upsert(ctx context.Context, route *models.AutomationRoute) error
	SetActive(ctx context.Context, workflowRef string, active bool) (int64, error)
	DeleteForAutomation(ctx context.Context, automationID uuid.UUID, workflowRef string) (int64, error)
	ListByWorkflowRef(ctx context.Context, workflowRef string) ([]models.AutomationRoute, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a routes repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Resolve returns active routes for the account and event type whose sub type
// matches exactly or is NULL.
func (r *repositoryImpl) Resolve(ctx context.Context, accountID string, eventType enums.EventType, subType string) ([]models.AutomationRoute, error) {
	var routes []models.AutomationRoute
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND account_id = ? AND event_type = ? AND (sub_type = ? OR sub_type IS NULL)",
			true, accountID, eventType, subType).
		Order("created_at ASC, id ASC").
		Find(&routes).Error
	return routes, err
}

// Upsert inserts the route or, when its shape already exists, overwrites the
// active flag and automation link.
func (r *repositoryImpl) Upsert(ctx context.Context, route *models.AutomationRoute) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_id"},
			{Name: "event_type"},
			{Name: "sub_type"},
			{Name: "workflow_ref"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"is_active":     route.IsActive,
			"automation_id": route.AutomationID,
			"updated_at":    time.Now().UTC(),
		}),
	}).Create(route).Error
}

func (r *repositoryImpl) SetActive(ctx context.Context, workflowRef string, active bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AutomationRoute{}).
		Where("workflow_ref = ?", workflowRef).
		UpdateColumns(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteForAutomation(ctx context.Context, automationID uuid.UUID, workflowRef string) (int64, error) {
	query := r.db.WithContext(ctx)
	if workflowRef != "" {
		query = query.Where("automation_id = ? OR workflow_ref = ?", automationID, workflowRef)
	} else {
		query = query.Where("automation_id = ?", automationID)
	}
	result := query.Delete(&models.AutomationRoute{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListByWorkflowRef(ctx context.Context, workflowRef string) ([]models.AutomationRoute, error) {
	var routes []models.AutomationRoute
	err := r.db.WithContext(ctx).Where("workflow_ref = ?", workflowRef).Order("created_at ASC").Find(&routes).Error
	return routes, err
}
