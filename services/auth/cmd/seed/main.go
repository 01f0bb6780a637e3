package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"authkit/pkg/cache"
	"authkit/pkg/config"
	"authkit/pkg/database"
	"authkit/pkg/logger"
	"authkit/pkg/models"
	"authkit/pkg/password"
	"authkit/services/auth/internal/entity"
	identityCache "authkit/services/auth/internal/repo/cache"
	"authkit/services/auth/internal/repo/persistent"
)

type seedAccount struct {
	name  string
	email string
	role  models.Role
}

var defaultAccounts = []seedAccount{
	{"Root Creator", "creator@authkit.test", models.RoleCreator},
	{"Site Admin", "admin@authkit.test", models.RoleAdmin},
	{"Alice Member", "alice@authkit.test", models.RoleMember},
	{"Bob Member", "bob@authkit.test", models.RoleMember},
}

// roleInvalidator drops cached roles after a seed run changes them.
type roleInvalidator interface {
	Invalidate(ctx context.Context, accountID string) error
}

func main() {
	var seedPassword string
	flag.StringVar(&seedPassword, "password", "password123", "Password for every seeded account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	var invalidator roleInvalidator
	if redisClient, err := cache.NewRedisClient(cfg); err != nil {
		log.Warn("Redis unavailable, skipping identity cache invalidation: %v", err)
	} else {
		defer redisClient.Close()
		invalidator = identityCache.NewIdentityCache(redisClient, cfg.IdentityCacheTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	hasher := password.NewHasher(cfg.BcryptCost, cfg.HashWorkers)
	if err := seedAccounts(ctx, persistent.NewAccountRepository(db), hasher, invalidator, seedPassword, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

// seedAccounts creates the default accounts. Existing accounts keep their password
// but get their role reset to the seeded one.
func seedAccounts(
	ctx context.Context,
	repo persistent.AccountRepository,
	hasher *password.Hasher,
	invalidator roleInvalidator,
	plaintext string,
	log *logger.Logger,
) error {
	digest, err := hasher.Hash(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	for _, seed := range defaultAccounts {
		existing, err := repo.GetByEmail(ctx, seed.email)
		switch {
		case err == nil:
			if existing.Role == seed.role {
				log.Info("Account %s already seeded", seed.email)
				continue
			}
			existing.Role = seed.role
			if err := repo.Update(ctx, existing); err != nil {
				return fmt.Errorf("update %s: %w", seed.email, err)
			}
			if invalidator != nil {
				if err := invalidator.Invalidate(ctx, existing.ID); err != nil {
					log.Warn("Failed to invalidate cached role for %s: %v", existing.ID, err)
				}
			}
			log.Info("Updated %s to role %s", seed.email, seed.role)
		case errors.Is(err, entity.ErrNotFound):
			account := &entity.Account{
				Name:         seed.name,
				Email:        seed.email,
				PasswordHash: digest,
				Role:         seed.role,
				IsVerified:   true,
			}
			if err := repo.Create(ctx, account); err != nil {
				return fmt.Errorf("create %s: %w", seed.email, err)
			}
			log.Info("Created %s (%s)", seed.email, seed.role)
		default:
			return fmt.Errorf("lookup %s: %w", seed.email, err)
		}
	}

	return nil
}
