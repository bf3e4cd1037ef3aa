package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// AutomationRoute maps an account/event shape to a workflow. A nil SubType
// matches every sub type of the event type.
type AutomationRoute struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	AccountID    string          `gorm:"column:account_id;type:text;not null;uniqueIndex:automation_routes_shape_key,priority:1"`
	EventType    enums.EventType `gorm:"column:event_type;type:text;not null;uniqueIndex:automation_routes_shape_key,priority:2"`
	SubType      *string         `gorm:"column:sub_type;type:text;uniqueIndex:automation_routes_shape_key,priority:3"`
	WorkflowRef  string          `gorm:"column:workflow_ref;type:text;not null;uniqueIndex:automation_routes_shape_key,priority:4"`
	AutomationID *uuid.UUID      `gorm:"column:automation_id;type:uuid"`
	IsActive     bool            `gorm:"column:is_active;not null;default:false"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AutomationRoute) TableName() string { return "automation_routes" }

func (r *AutomationRoute) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
