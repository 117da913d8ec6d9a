package memory

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// lockTable эксклюзивные блокировки по ключу ("teacher:1", "slot:7").
// Ожидание прерывается отменой ctx.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*semaphore.Weighted)}
}

func (t *lockTable) get(key string) *semaphore.Weighted {
	t.mu.Lock()
	defer t.mu.Unlock()

	sem, ok := t.locks[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		t.locks[key] = sem
	}
	return sem
}

func (t *lockTable) acquire(ctx context.Context, key string) error {
	return t.get(key).Acquire(ctx, 1)
}

func (t *lockTable) release(key string) {
	t.get(key).Release(1)
}
