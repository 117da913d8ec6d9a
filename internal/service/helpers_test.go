package service

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type services struct {
	store        *memory.Store
	clock        *fixedClock
	slots        *SlotService
	reservations *ReservationService
	calendar     *CalendarService
}

// newServices собирает сервисы поверх хранилища в памяти; "сейчас" 2025-12-01 09:00 UTC
func newServices(t *testing.T) *services {
	t.Helper()

	clock := &fixedClock{now: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithNow(clock.Now))
	logger := zap.NewNop()

	var seq atomic.Int64
	tokens := func() (string, error) {
		return "token-" + strconv.FormatInt(seq.Add(1), 10), nil
	}

	reservations := NewReservationService(store, tokens, clock, logger)
	return &services{
		store:        store,
		clock:        clock,
		slots:        NewSlotService(store, reservations, clock, logger),
		reservations: reservations,
		calendar:     NewCalendarService(store, reservations, clock, logger),
	}
}

func (s *services) addTeacher(t *testing.T, email string) int64 {
	t.Helper()

	teacher := &model.Teacher{Name: "Teacher", Email: email, PasswordHash: "x"}
	err := s.store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Teachers().Create(ctx, teacher)
	})
	require.NoError(t, err)
	return teacher.ID
}

func (s *services) addSlot(t *testing.T, teacherID int64, date, start string, duration int) *model.LessonSlot {
	t.Helper()

	slot, err := s.slots.CreateSlot(context.Background(), teacherID, CreateSlotInput{
		Date:      mustDate(t, date),
		StartTime: mustClock(t, start),
		Duration:  duration,
	})
	require.NoError(t, err)
	return slot
}

func mustDate(t *testing.T, s string) timeslot.Date {
	t.Helper()
	d, err := timeslot.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustClock(t *testing.T, s string) timeslot.Clock {
	t.Helper()
	c, err := timeslot.ParseClock(s)
	require.NoError(t, err)
	return c
}

func day(t *testing.T, s string) timeslot.DateRange {
	t.Helper()
	d := mustDate(t, s)
	return timeslot.DateRange{From: d, To: d}
}

var alice = model.Student{Name: "Alice", Email: "alice@example.com"}
