package persistent

import (
	"authkit/pkg/models"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/model"
)

func ToAccountEntity(m *model.AccountModel) *entity.Account {
	if m == nil {
		return nil
	}

	return &entity.Account{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         models.Role(m.Role),
		Photo:        m.Photo,
		Bio:          m.Bio,
		IsVerified:   m.IsVerified,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToAccountModel(e *entity.Account) *model.AccountModel {
	if e == nil {
		return nil
	}

	return &model.AccountModel{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Role:         string(e.Role),
		Photo:        e.Photo,
		Bio:          e.Bio,
		IsVerified:   e.IsVerified,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func ToSecretTokenEntity(m *model.SecretTokenModel) *entity.SecretToken {
	if m == nil {
		return nil
	}

	return &entity.SecretToken{
		ID:        m.ID,
		AccountID: m.AccountID,
		Purpose:   entity.TokenPurpose(m.Purpose),
		Hash:      m.TokenHash,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

func ToSecretTokenModel(e *entity.SecretToken) *model.SecretTokenModel {
	if e == nil {
		return nil
	}

	return &model.SecretTokenModel{
		ID:        e.ID,
		AccountID: e.AccountID,
		Purpose:   string(e.Purpose),
		TokenHash: e.Hash,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}
