package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarForGroupsByDate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	late := s.addSlot(t, teacherID, "2025-12-10", "10:30", 30)
	early := s.addSlot(t, teacherID, "2025-12-10", "10:00", 30)
	next := s.addSlot(t, teacherID, "2025-12-11", "09:00", 60)
	s.addSlot(t, teacherID, "2025-12-12", "09:00", 60)

	_, err := s.reservations.Reserve(ctx, early.ID, alice)
	require.NoError(t, err)

	dates, err := timeslot.NewDateRange(mustDate(t, "2025-12-10"), mustDate(t, "2025-12-11"))
	require.NoError(t, err)

	calendar, err := s.calendar.CalendarFor(ctx, teacherID, dates)
	require.NoError(t, err)
	require.Len(t, calendar, 2)

	tenth := calendar["2025-12-10"]
	require.Len(t, tenth, 2)
	assert.Equal(t, early.ID, tenth[0].SlotID)
	assert.True(t, tenth[0].HasReservation)
	assert.False(t, tenth[0].IsAvailable)
	assert.Equal(t, late.ID, tenth[1].SlotID)
	assert.False(t, tenth[1].HasReservation)
	assert.True(t, tenth[1].IsAvailable)

	require.Len(t, calendar["2025-12-11"], 1)
	assert.Equal(t, next.ID, calendar["2025-12-11"][0].SlotID)
	assert.Equal(t, 60, calendar["2025-12-11"][0].Duration)

	for _, entries := range calendar {
		for _, e := range entries {
			assert.Equal(t, !e.IsAvailable, e.HasReservation)
		}
	}
}

func TestCalendarForUnknownTeacher(t *testing.T) {
	t.Parallel()

	s := newServices(t)
	_, err := s.calendar.CalendarFor(context.Background(), 42, day(t, "2025-12-10"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAvailableSlotsSkipsReservedAndStarted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newServices(t)
	teacherID := s.addTeacher(t, "t1@example.com")

	started := s.addSlot(t, teacherID, "2025-12-01", "08:30", 30)
	upcoming := s.addSlot(t, teacherID, "2025-12-01", "12:00", 30)
	reserved := s.addSlot(t, teacherID, "2025-12-02", "10:00", 30)

	_, err := s.reservations.Reserve(ctx, reserved.ID, alice)
	require.NoError(t, err)

	dates, err := timeslot.NewDateRange(mustDate(t, "2025-12-01"), mustDate(t, "2025-12-02"))
	require.NoError(t, err)

	available, err := s.calendar.AvailableSlots(ctx, teacherID, dates)
	require.NoError(t, err)

	require.Len(t, available, 1)
	require.Len(t, available["2025-12-01"], 1)
	assert.Equal(t, upcoming.ID, available["2025-12-01"][0].SlotID)
	assert.NotEqual(t, started.ID, available["2025-12-01"][0].SlotID)
}
