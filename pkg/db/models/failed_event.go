package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

// FailedEvent is a dead-letter row for a workflow dispatch that did not
// succeed. Nothing consumes these automatically.
type FailedEvent struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EventID      string     `gorm:"column:event_id;type:text;not null"`
	AccountID    string     `gorm:"column:account_id;type:text;not null;index:failed_events_account_created_idx,priority:1"`
	WorkflowRef  string     `gorm:"column:workflow_ref;type:text"`
	Payload      types.JSON `gorm:"column:payload;type:jsonb;not null"`
	ErrorMessage string     `gorm:"column:error_message;type:text;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;index:failed_events_account_created_idx,priority:2"`
}

func (FailedEvent) TableName() string { return "failed_events" }

func (f *FailedEvent) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
