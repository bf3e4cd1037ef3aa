package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// ActivityLog is one action invocation attempt. Rows are append-only.
type ActivityLog struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	AutomationID   *uuid.UUID           `gorm:"column:automation_id;type:uuid"`
	AccountID      string               `gorm:"column:account_id;type:text;not null;index:activity_logs_account_created_idx,priority:1"`
	TargetUsername string               `gorm:"column:target_username;type:text"`
	TargetID       string               `gorm:"column:target_id;type:text"`
	ActionType     enums.ActionType     `gorm:"column:action_type;type:text;not null"`
	Message        *string              `gorm:"column:message;type:text"`
	Status         enums.ActivityStatus `gorm:"column:status;type:text;not null"`
	Metadata       types.Metadata       `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time            `gorm:"column:created_at;not null;index:activity_logs_account_created_idx,priority:2"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
