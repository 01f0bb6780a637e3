package password

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost, 2)
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	digest, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", digest)

	assert.True(t, h.Verify(ctx, "secret1", digest))
	assert.False(t, h.Verify(ctx, "secret2", digest))
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	first, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHash_UsesConfiguredCost(t *testing.T) {
	h := NewHasher(bcrypt.MinCost+1, 1)

	digest, err := h.Hash(context.Background(), "secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewHasher(1000, 0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestHash_TooLong(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash(context.Background(), strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestVerify_MalformedDigest(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	assert.False(t, h.Verify(ctx, "secret1", ""))
	assert.False(t, h.Verify(ctx, "secret1", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify(ctx, "secret1", "$2a$10$short"))
}

func TestHash_CancelledContextWhileWaiting(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.workers.Acquire(context.Background(), 1))
	defer h.workers.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "secret1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.Verify(ctx, "secret1", "$2a$04$abcdefghijklmnopqrstuv"))
}

func TestHash_Concurrent(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	var wg sync.WaitGroup
	digests := make([]string, 8)
	for i := range digests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := h.Hash(ctx, "secret1")
			assert.NoError(t, err)
			digests[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range digests {
		assert.True(t, h.Verify(ctx, "secret1", d))
	}
}
