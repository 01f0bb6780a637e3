package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/persistent"

	"github.com/google/uuid"
)

// AccountRepository keeps accounts in memory. It is used by tests and local runs without a database.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account
}

var _ persistent.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]entity.Account)}
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(account.Email, "") {
		return entity.ErrDuplicateEmail
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *AccountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*entity.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		account := account
		accounts = append(accounts, &account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok {
		return entity.ErrNotFound
	}
	if r.emailTaken(account.Email, account.ID) {
		return entity.ErrDuplicateEmail
	}

	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now()
	r.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepository) emailTaken(email, exceptID string) bool {
	for id, account := range r.accounts {
		if id != exceptID && account.Email == email {
			return true
		}
	}
	return false
}
