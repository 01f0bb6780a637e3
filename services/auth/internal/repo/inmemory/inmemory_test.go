package inmemory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"authkit/pkg/models"
	"authkit/services/auth/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := &entity.Account{Name: "Ada", Email: "ada@x.com", Role: models.RoleMember}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotEmpty(t, account.ID)

	byID, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	byEmail, err := repo.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "ADA@x.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAccountRepository_DuplicateEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Account{Email: "ada@x.com"}))
	bob := &entity.Account{Email: "bob@x.com"}
	require.NoError(t, repo.Create(ctx, bob))

	assert.ErrorIs(t, repo.Create(ctx, &entity.Account{Email: "ada@x.com"}), entity.ErrDuplicateEmail)

	bob.Email = "ada@x.com"
	assert.ErrorIs(t, repo.Update(ctx, bob), entity.ErrDuplicateEmail)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	repo := NewAccountRepository()

	err := repo.Update(context.Background(), &entity.Account{ID: "missing"})

	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	account := &entity.Account{Name: "Ada", Email: "ada@x.com"}
	require.NoError(t, repo.Create(ctx, account))

	loaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	loaded.Name = "Changed"

	again, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name)
}

func TestTokenRepository_ReplaceKeepsOne(t *testing.T) {
	repo := NewTokenRepository()
	ctx := context.Background()
	now := time.Now()

	first := &entity.SecretToken{AccountID: "acc-1", Purpose: entity.PurposeVerification, Hash: "h1", ExpiresAt: now.Add(time.Hour)}
	second := &entity.SecretToken{AccountID: "acc-1", Purpose: entity.PurposeVerification, Hash: "h2", ExpiresAt: now.Add(time.Hour)}
	reset := &entity.SecretToken{AccountID: "acc-1", Purpose: entity.PurposePasswordReset, Hash: "h3", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Replace(ctx, first))
	require.NoError(t, repo.Replace(ctx, second))
	require.NoError(t, repo.Replace(ctx, reset))

	outstanding := repo.Outstanding("acc-1", entity.PurposeVerification)
	require.Len(t, outstanding, 1)
	assert.Equal(t, "h2", outstanding[0].Hash)
	assert.Len(t, repo.Outstanding("acc-1", entity.PurposePasswordReset), 1)

	_, err := repo.FindActive(ctx, "h1", entity.PurposeVerification, now)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTokenRepository_FindActive(t *testing.T) {
	repo := NewTokenRepository()
	ctx := context.Background()
	now := time.Now()

	token := &entity.SecretToken{AccountID: "acc-1", Purpose: entity.PurposePasswordReset, Hash: "h1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Replace(ctx, token))

	found, err := repo.FindActive(ctx, "h1", entity.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)

	_, err = repo.FindActive(ctx, "h1", entity.PurposeVerification, now)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = repo.FindActive(ctx, "h1", entity.PurposePasswordReset, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTokenRepository_ConsumeOnce(t *testing.T) {
	repo := NewTokenRepository()
	ctx := context.Background()
	token := &entity.SecretToken{AccountID: "acc-1", Purpose: entity.PurposeVerification, Hash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Replace(ctx, token))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Consume(ctx, token.ID)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
