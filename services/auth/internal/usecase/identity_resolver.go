package usecase

import (
	"context"
	"errors"

	"authkit/pkg/logger"
	"authkit/pkg/middleware"
	"authkit/pkg/models"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/persistent"
)

type IdentityCache interface {
	Get(ctx context.Context, accountID string) (models.Role, bool, error)
	Set(ctx context.Context, accountID string, role models.Role) error
}

// IdentityResolver loads the caller's role for the auth middleware, reading through
// the cache when one is configured. Cache faults fall back to the store.
//
// A cache hit is trusted for the cache TTL: a role change or an account removed outside
// this service is seen only after the entry expires or is invalidated.
type IdentityResolver struct {
	accountRepo persistent.AccountRepository
	cache       IdentityCache
	logger      *logger.Logger
}

var _ middleware.AccountResolver = (*IdentityResolver)(nil)

func NewIdentityResolver(accountRepo persistent.AccountRepository, cache IdentityCache, logger *logger.Logger) *IdentityResolver {
	return &IdentityResolver{accountRepo: accountRepo, cache: cache, logger: logger}
}

func (r *IdentityResolver) ResolveIdentity(ctx context.Context, accountID string) (*middleware.Identity, error) {
	if r.cache != nil {
		role, ok, err := r.cache.Get(ctx, accountID)
		if err != nil {
			r.logger.Warn("Identity cache unavailable: %v", err)
		} else if ok {
			return &middleware.Identity{AccountID: accountID, Role: role}, nil
		}
	}

	account, err := r.accountRepo.GetByID(ctx, accountID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, middleware.ErrAccountGone
	}
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, accountID, account.Role); err != nil {
			r.logger.Warn("Failed to cache identity %s: %v", accountID, err)
		}
	}

	return &middleware.Identity{AccountID: account.ID, Role: account.Role}, nil
}
