package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// Automation stores a user-configured trigger and its ordered action list.
// TriggerConfig and Actions are tagged JSON documents decoded by the
// automations package.
type Automation struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID   uuid.UUID              `gorm:"column:owner_user_id;type:uuid;not null"`
	AccountID     uuid.UUID              `gorm:"column:account_id;type:uuid;not null"`
	Name          string                 `gorm:"column:name;type:text;not null"`
	TriggerType   enums.TriggerType      `gorm:"column:trigger_type;type:text;not null"`
	TriggerConfig types.JSON             `gorm:"column:trigger_config;type:jsonb;not null"`
	Actions       types.JSON             `gorm:"column:actions;type:jsonb;not null"`
	Status        enums.AutomationStatus `gorm:"column:status;type:text;not null;default:inactive"`
	WorkflowRef   *string                `gorm:"column:workflow_ref;type:text;uniqueIndex"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Automation) TableName() string { return "automations" }

func (a *Automation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// WorkflowRefValue returns the workflow reference or "".
func (a Automation) WorkflowRefValue() string {
	if a.WorkflowRef == nil {
		return ""
	}
	return *a.WorkflowRef
}
