// Package password hashes and verifies account passwords with bcrypt.
//
// bcrypt is CPU bound, so a Hasher admits at most a fixed number of concurrent
// hash or compare operations; callers beyond that wait for a slot or for their
// context to end.
package password

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxLength is the longest password, in bytes, bcrypt accepts.
const MaxLength = 72

type Hasher struct {
	cost    int
	workers *semaphore.Weighted
}

// NewHasher returns a Hasher using the given bcrypt cost and worker bound.
// Out of range costs fall back to bcrypt.DefaultCost; workers below 1 become 1.
func NewHasher(cost int, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &Hasher{
		cost:    cost,
		workers: semaphore.NewWeighted(int64(workers)),
	}
}

func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.workers.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.workers.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests and
// cancelled contexts report false.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	if err := h.workers.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.workers.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
