package memory

import (
	"context"
	"sync"
)

// Transactor serializes transactions; it does not roll back.
type Transactor struct {
	mu sync.Mutex
}

func NewTransactor() *Transactor {
	return &Transactor{}
}

func (t *Transactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return f(ctx)
}
