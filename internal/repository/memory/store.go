package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

// Store хранилище в памяти с теми же гарантиями, что и postgres:
// атомарность через журнал отката, сериализация через блокировки по ключу.
// Незакоммиченные записи видны параллельным читателям (аналог READ UNCOMMITTED),
// на инварианты это не влияет: все изменения идут под блокировками.
type Store struct {
	mu           sync.RWMutex
	teachers     map[int64]*model.Teacher
	slots        map[int64]*model.LessonSlot
	reservations map[int64]*model.Reservation
	tokens       map[string]int64

	lastTeacherID     int64
	lastSlotID        int64
	lastReservationID int64

	locks *lockTable
	now   func() time.Time
}

type Option func(*Store)

// WithNow подменяет часы для created_at/updated_at
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		teachers:     make(map[int64]*model.Teacher),
		slots:        make(map[int64]*model.LessonSlot),
		reservations: make(map[int64]*model.Reservation),
		tokens:       make(map[string]int64),
		locks:        newLockTable(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx выполняет fn как единицу работы
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{store: s, held: make(map[string]bool)}
	defer t.releaseLocks()

	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, t); err != nil {
		t.rollback()
		return err
	}

	// отменённый запрос не коммитим, как и postgres
	if err := ctx.Err(); err != nil {
		t.rollback()
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type tx struct {
	store *Store
	held  map[string]bool
	order []string
	undo  []func()
}

func (t *tx) Teachers() repository.TeacherRepository {
	return &teacherRepo{tx: t}
}

func (t *tx) Slots() repository.SlotRepository {
	return &slotRepo{tx: t}
}

func (t *tx) Reservations() repository.ReservationRepository {
	return &reservationRepo{tx: t}
}

// lock берёт блокировку до конца транзакции; повторный вызов в той же транзакции ничего не делает
func (t *tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
	t.held = nil
}

// onRollback регистрирует откат; вызывается под store.mu
func (t *tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *tx) rollback() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func teacherKey(id int64) string { return fmt.Sprintf("teacher:%d", id) }
func slotKey(id int64) string    { return fmt.Sprintf("slot:%d", id) }

func cloneSlot(s *model.LessonSlot) *model.LessonSlot {
	c := *s
	return &c
}

func cloneReservation(r *model.Reservation) *model.Reservation {
	c := *r
	c.Slot = nil
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}
