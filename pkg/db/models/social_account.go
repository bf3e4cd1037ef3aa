package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// SocialAccount is a platform account linked by a user. ExternalID is the id
// deliveries carry as entry.id.
type SocialAccount struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID uuid.UUID      `gorm:"column:owner_user_id;type:uuid;not null"`
	Platform    enums.Platform `gorm:"column:platform;type:text;not null"`
	ExternalID  string         `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	Username    string         `gorm:"column:username;type:text"`
	AccessToken string         `gorm:"column:access_token;type:text;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (SocialAccount) TableName() string { return "social_accounts" }

func (a *SocialAccount) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
