// Package orders holds the order store and the order-confirmation domain
// logic: phone normalization, confirmation script building and reply
// classification.
package orders

import (
	"sort"
	"sync"
	"time"

	"github.com/order-expert/voicebot-service/internal/core"
)

// MemoryStore is an in-memory implementation of core.OrderStore. Orders are
// identified by sequential integers starting at 1.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[int]*core.Order
	nextID int
}

// NewMemoryStore creates an empty order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:     sync.RWMutex{},
		orders: make(map[int]*core.Order),
		nextID: 1,
	}
}

// Create assigns the next ID, stamps the creation time and stores the order.
func (s *MemoryStore) Create(order *core.Order) *core.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextID
	s.nextID++

	if order.Status == "" {
		order.Status = core.StatusPending
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	stored := *order
	s.orders[stored.ID] = &stored

	return order
}

// Get returns a copy of the order with the given ID.
func (s *MemoryStore) Get(id int) (*core.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, false
	}

	copied := *order

	return &copied, true
}

// List returns copies of all orders sorted by ID.
func (s *MemoryStore) List() []*core.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*core.Order, 0, len(s.orders))
	for _, order := range s.orders {
		copied := *order
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// Update applies mutate to the stored order under the write lock and returns
// the updated copy.
func (s *MemoryStore) Update(id int, mutate func(*core.Order)) (*core.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, false
	}

	mutate(order)

	copied := *order

	return &copied, true
}
