package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSlotLifecycleWithReservation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	first := s.addSlot(t, teacherID, "2025-12-10", "10:00", 30)
	assert.Equal(t, "10:30", first.EndTime.String())
	assert.True(t, first.IsAvailable)
	assert.Equal(t, model.SlotStateOpen, first.State())

	_, err := s.slots.CreateSlot(ctx, teacherID, CreateSlotInput{
		Date:      mustDate(t, "2025-12-10"),
		StartTime: mustClock(t, "10:15"),
		Duration:  30,
	})
	assert.ErrorIs(t, err, model.ErrOverlap)

	second := s.addSlot(t, teacherID, "2025-12-10", "10:30", 30)
	assert.Equal(t, "11:00", second.EndTime.String())

	reservation, err := s.reservations.Reserve(ctx, first.ID, alice)
	require.NoError(t, err)
	assert.False(t, reservation.Slot.IsAvailable)

	err = s.slots.DeleteSlot(ctx, teacherID, first.ID)
	assert.ErrorIs(t, err, model.ErrHasReservation)

	_, err = s.reservations.Cancel(ctx, reservation.CancelToken)
	require.NoError(t, err)

	slots, err := s.slots.ListSlots(ctx, teacherID, day(t, "2025-12-10"))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].IsAvailable)

	require.NoError(t, s.slots.DeleteSlot(ctx, teacherID, first.ID))

	slots, err = s.slots.ListSlots(ctx, teacherID, day(t, "2025-12-10"))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, second.ID, slots[0].ID)
}

func TestCreateSlotValidation(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	tests := []struct {
		name    string
		input   CreateSlotInput
		wantErr error
	}{
		{
			name:    "unsupported duration",
			input:   CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: mustClock(t, "10:00"), Duration: 45},
			wantErr: timeslot.ErrInvalidDuration,
		},
		{
			name:    "crosses midnight",
			input:   CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: mustClock(t, "23:45"), Duration: 30},
			wantErr: timeslot.ErrCrossesMidnight,
		},
		{
			name:    "starts at end of day",
			input:   CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: timeslot.EndOfDay, Duration: 30},
			wantErr: timeslot.ErrInvalidStart,
		},
		{
			name:    "date in the past",
			input:   CreateSlotInput{Date: mustDate(t, "2025-11-30"), StartTime: mustClock(t, "10:00"), Duration: 30},
			wantErr: model.ErrPastDate,
		},
		{
			name:    "unknown teacher",
			input:   CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: mustClock(t, "10:00"), Duration: 30},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := teacherID
			if tt.wantErr == model.ErrNotFound {
				id = teacherID + 100
			}
			_, err := s.slots.CreateSlot(context.Background(), id, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateSlotEndingAtMidnightAndToday(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	slot := s.addSlot(t, teacherID, "2025-12-01", "23:30", 30)
	assert.Equal(t, timeslot.EndOfDay, slot.EndTime)
}

// overlapCounter собирает исходы параллельных попыток
type overlapCounter struct {
	mu       sync.Mutex
	accepted int
	rejected int
}

func (c *overlapCounter) record(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err == nil:
		c.accepted++
	case errors.Is(err, model.ErrOverlap):
		c.rejected++
	default:
		return err
	}
	return nil
}

func assertNoOverlappingPair(t *testing.T, slots []*model.LessonSlot) {
	t.Helper()

	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			assert.False(t, timeslot.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime),
				"%s-%s overlaps %s-%s", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
		}
	}
}

func TestCreateSlotConcurrentNoOverlap(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	starts := []string{"10:00", "10:15", "10:20", "10:29", "09:45", "09:31"}
	const rounds = 10

	var counter overlapCounter
	var g errgroup.Group
	for range rounds {
		for _, start := range starts {
			in := CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: mustClock(t, start), Duration: 30}
			g.Go(func() error {
				_, err := s.slots.CreateSlot(context.Background(), teacherID, in)
				return counter.record(err)
			})
		}
	}
	require.NoError(t, g.Wait())

	slots, err := s.slots.ListSlots(context.Background(), teacherID, day(t, "2025-12-10"))
	require.NoError(t, err)

	assert.NotEmpty(t, slots)
	assert.Equal(t, len(slots), counter.accepted)
	assert.Equal(t, rounds*len(starts)-len(slots), counter.rejected)
	assertNoOverlappingPair(t, slots)
}

func TestUpdateAndCreateSlotConcurrentNoOverlap(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	var moved []*model.LessonSlot
	for _, start := range []string{"13:00", "14:00", "15:00", "16:00", "17:00", "18:00"} {
		moved = append(moved, s.addSlot(t, teacherID, "2025-12-10", start, 30))
	}

	targets := []string{"10:00", "10:15", "10:20", "10:29", "09:45", "09:31"}

	var counter overlapCounter
	var g errgroup.Group
	for i, slot := range moved {
		start := mustClock(t, targets[i%len(targets)])
		g.Go(func() error {
			_, err := s.slots.UpdateSlot(context.Background(), teacherID, slot.ID, UpdateSlotInput{StartTime: &start})
			return counter.record(err)
		})
	}
	for range 3 {
		for _, target := range targets {
			in := CreateSlotInput{Date: mustDate(t, "2025-12-10"), StartTime: mustClock(t, target), Duration: 30}
			g.Go(func() error {
				_, err := s.slots.CreateSlot(context.Background(), teacherID, in)
				return counter.record(err)
			})
		}
	}
	require.NoError(t, g.Wait())

	slots, err := s.slots.ListSlots(context.Background(), teacherID, day(t, "2025-12-10"))
	require.NoError(t, err)

	assert.Equal(t, len(moved)+3*len(targets), counter.accepted+counter.rejected)
	assertNoOverlappingPair(t, slots)
}

func TestSlotsOfDifferentTeachersMayOverlap(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	first := s.addTeacher(t, "t1@example.com")
	second := s.addTeacher(t, "t2@example.com")

	s.addSlot(t, first, "2025-12-10", "10:00", 60)
	s.addSlot(t, second, "2025-12-10", "10:00", 60)
}

func TestUpdateSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")
	other := s.addTeacher(t, "t2@example.com")

	slot := s.addSlot(t, teacherID, "2025-12-10", "10:00", 30)
	s.addSlot(t, teacherID, "2025-12-10", "11:00", 30)

	duration := 60
	updated, err := s.slots.UpdateSlot(ctx, teacherID, slot.ID, UpdateSlotInput{Duration: &duration})
	require.NoError(t, err)
	assert.Equal(t, "11:00", updated.EndTime.String())

	start := mustClock(t, "10:30")
	_, err = s.slots.UpdateSlot(ctx, teacherID, slot.ID, UpdateSlotInput{StartTime: &start})
	assert.ErrorIs(t, err, model.ErrOverlap)

	past := mustDate(t, "2025-11-01")
	_, err = s.slots.UpdateSlot(ctx, teacherID, slot.ID, UpdateSlotInput{Date: &past})
	assert.ErrorIs(t, err, model.ErrPastDate)

	_, err = s.slots.UpdateSlot(ctx, other, slot.ID, UpdateSlotInput{Duration: &duration})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.reservations.Reserve(ctx, slot.ID, alice)
	require.NoError(t, err)

	_, err = s.slots.UpdateSlot(ctx, teacherID, slot.ID, UpdateSlotInput{Duration: &duration})
	assert.ErrorIs(t, err, model.ErrHasReservation)

	slots, err := s.slots.ListSlots(ctx, teacherID, day(t, "2025-12-10"))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].StartTime.String())
	assert.Equal(t, "11:00", slots[0].EndTime.String())
}

func TestDeleteSlotOfAnotherTeacher(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	owner := s.addTeacher(t, "t1@example.com")
	other := s.addTeacher(t, "t2@example.com")
	slot := s.addSlot(t, owner, "2025-12-10", "10:00", 30)

	err := s.slots.DeleteSlot(context.Background(), other, slot.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = s.slots.DeleteSlot(context.Background(), owner, slot.ID+1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPruneExpiredKeepsReservedSlots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newServices(t)
	first := s.addTeacher(t, "t1@example.com")
	second := s.addTeacher(t, "t2@example.com")

	open := s.addSlot(t, first, "2025-12-02", "10:00", 30)
	reserved := s.addSlot(t, first, "2025-12-02", "11:00", 30)
	s.addSlot(t, second, "2025-12-03", "10:00", 30)
	later := s.addSlot(t, second, "2025-12-20", "10:00", 30)

	_, err := s.reservations.Reserve(ctx, reserved.ID, alice)
	require.NoError(t, err)

	deleted, err := s.slots.PruneExpired(ctx, mustDate(t, "2025-12-10"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	all := timeslot.DateRange{From: mustDate(t, "2025-12-01"), To: mustDate(t, "2025-12-31")}

	firstSlots, err := s.slots.ListSlots(ctx, first, all)
	require.NoError(t, err)
	require.Len(t, firstSlots, 1)
	assert.Equal(t, reserved.ID, firstSlots[0].ID)
	assert.NotEqual(t, open.ID, firstSlots[0].ID)

	secondSlots, err := s.slots.ListSlots(ctx, second, all)
	require.NoError(t, err)
	require.Len(t, secondSlots, 1)
	assert.Equal(t, later.ID, secondSlots[0].ID)
}
