package orders_test

import (
	"sync"
	"testing"

	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := orders.NewMemoryStore()

	created := store.Create(&core.Order{RawText: "২টা নীল শার্ট, সাইজ L"})
	require.Equal(t, 1, created.ID)
	require.Equal(t, core.StatusPending, created.Status)
	require.False(t, created.CreatedAt.IsZero())

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "২টা নীল শার্ট, সাইজ L", got.RawText)

	_, ok = store.Get(42)
	assert.False(t, ok)
}

func TestMemoryStore_SequentialIDs(t *testing.T) {
	t.Parallel()

	store := orders.NewMemoryStore()

	first := store.Create(&core.Order{})
	second := store.Create(&core.Order{})

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)

	listed := store.List()
	require.Len(t, listed, 2)
	assert.Equal(t, 1, listed[0].ID)
	assert.Equal(t, 2, listed[1].ID)
}

func TestMemoryStore_Update(t *testing.T) {
	t.Parallel()

	store := orders.NewMemoryStore()
	store.Create(&core.Order{})

	updated, ok := store.Update(1, func(order *core.Order) {
		order.Status = core.StatusConfirmed
		order.LastCallSID = "CA123"
	})
	require.True(t, ok)
	assert.Equal(t, core.StatusConfirmed, updated.Status)

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "CA123", got.LastCallSID)

	_, ok = store.Update(99, func(*core.Order) {})
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	store := orders.NewMemoryStore()

	const goroutines = 32

	var waitGroup sync.WaitGroup

	for range goroutines {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			store.Create(&core.Order{})
		}()
	}

	waitGroup.Wait()

	listed := store.List()
	require.Len(t, listed, goroutines)

	seen := make(map[int]bool, goroutines)
	for _, order := range listed {
		assert.False(t, seen[order.ID], "duplicate id %d", order.ID)
		seen[order.ID] = true
	}
}
