package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SecretTokenModel struct {
	ID        string    `gorm:"type:uuid;primary_key"`
	AccountID string    `gorm:"type:uuid;not null;uniqueIndex:idx_secret_tokens_account_purpose"`
	Purpose   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_secret_tokens_account_purpose"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (SecretTokenModel) TableName() string {
	return "secret_tokens"
}

func (t *SecretTokenModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
