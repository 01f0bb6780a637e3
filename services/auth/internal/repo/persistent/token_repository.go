package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/model"

	"gorm.io/gorm"
)

type TokenRepository interface {
	// Replace removes any outstanding token for the same account and purpose and stores
	// token in one transaction.
	Replace(ctx context.Context, token *entity.SecretToken) error
	FindActive(ctx context.Context, hash string, purpose entity.TokenPurpose, now time.Time) (*entity.SecretToken, error)
	// Consume deletes the token and reports whether this call was the one that removed it.
	Consume(ctx context.Context, id string) (bool, error)
	DeleteByAccount(ctx context.Context, accountID string, purpose entity.TokenPurpose) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// replaceAttempts bounds retries when a concurrent Replace for the same account and
// purpose commits between our delete and insert.
const replaceAttempts = 2

func (r *tokenRepository) Replace(ctx context.Context, token *entity.SecretToken) error {
	tokenModel := ToSecretTokenModel(token)

	var err error
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("account_id = ? AND purpose = ?", token.AccountID, string(token.Purpose)).
				Delete(&model.SecretTokenModel{}).Error; err != nil {
				return err
			}
			return tx.Create(tokenModel).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to replace %s token: %w", token.Purpose, err)
	}

	*token = *ToSecretTokenEntity(tokenModel)
	return nil
}

func (r *tokenRepository) FindActive(ctx context.Context, hash string, purpose entity.TokenPurpose, now time.Time) (*entity.SecretToken, error) {
	var tokenModel model.SecretTokenModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND purpose = ? AND expires_at > ?", hash, string(purpose), now).
		First(&tokenModel).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ToSecretTokenEntity(&tokenModel), nil
}

func (r *tokenRepository) Consume(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SecretTokenModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *tokenRepository) DeleteByAccount(ctx context.Context, accountID string, purpose entity.TokenPurpose) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND purpose = ?", accountID, string(purpose)).
		Delete(&model.SecretTokenModel{}).Error
}
