package inmemory

import (
	"context"
	"sync"
	"time"

	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/persistent"

	"github.com/google/uuid"
)

type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]entity.SecretToken
}

var _ persistent.TokenRepository = (*TokenRepository)(nil)

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]entity.SecretToken)}
}

func (r *TokenRepository) Replace(ctx context.Context, token *entity.SecretToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteByAccount(token.AccountID, token.Purpose)

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	r.tokens[token.ID] = *token
	return nil
}

func (r *TokenRepository) FindActive(ctx context.Context, hash string, purpose entity.TokenPurpose, now time.Time) (*entity.SecretToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.Hash == hash && token.Purpose == purpose && !token.Expired(now) {
			return &token, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *TokenRepository) Consume(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return false, nil
	}
	delete(r.tokens, id)
	return true, nil
}

func (r *TokenRepository) DeleteByAccount(ctx context.Context, accountID string, purpose entity.TokenPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteByAccount(accountID, purpose)
	return nil
}

// Outstanding returns the stored tokens for an account and purpose.
func (r *TokenRepository) Outstanding(accountID string, purpose entity.TokenPurpose) []entity.SecretToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.SecretToken
	for _, token := range r.tokens {
		if token.AccountID == accountID && token.Purpose == purpose {
			out = append(out, token)
		}
	}
	return out
}

// SetExpiry moves the expiry of a stored token.
func (r *TokenRepository) SetExpiry(id string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.tokens[id]; ok {
		token.ExpiresAt = expiresAt
		r.tokens[id] = token
	}
}

func (r *TokenRepository) deleteByAccount(accountID string, purpose entity.TokenPurpose) {
	for id, token := range r.tokens {
		if token.AccountID == accountID && token.Purpose == purpose {
			delete(r.tokens, id)
		}
	}
}
