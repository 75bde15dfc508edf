package basket

import (
	"context"
	"sync"

	"shopbasket/internal/domain"
)

// MemoryRepo keeps encoded baskets in process memory. Payloads go through the same
// encoding as the Redis repository so both behave identically on reads.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *MemoryRepo {
	return &MemoryRepo{entries: make(map[string][]byte)}
}

func (m *MemoryRepo) Get(ctx context.Context, userName string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	payload, ok := m.entries[userName]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(userName, payload)
}

func (m *MemoryRepo) Set(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[cart.UserName] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepo) Remove(ctx context.Context, userName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, userName)
	m.mu.Unlock()
	return nil
}
