package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessedEvent is the dedup ledger row. Its existence means the event was
// admitted once.
type ProcessedEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	EventID   string    `gorm:"column:event_id;type:text;not null;uniqueIndex:processed_events_event_account_key,priority:1"`
	AccountID string    `gorm:"column:account_id;type:text;not null;uniqueIndex:processed_events_event_account_key,priority:2;index:processed_events_account_created_idx,priority:1"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:processed_events_account_created_idx,priority:2;index:processed_events_created_idx"`
}

func (ProcessedEvent) TableName() string { return "processed_events" }

func (p *ProcessedEvent) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
