package storage

import (
	"context"
	"sync"
)

type Memory[D any] struct {
	mu    sync.RWMutex
	data  D
	found bool
}

func NewMemory[D any]() *Memory[D] {
	return &Memory[D]{}
}

func (m *Memory[D]) Set(_ context.Context, data D) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data
	m.found = true

	return nil
}

func (m *Memory[D]) Get(_ context.Context) (D, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data, m.found, nil
}

func (m *Memory[D]) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero D
	m.data = zero
	m.found = false

	return nil
}
