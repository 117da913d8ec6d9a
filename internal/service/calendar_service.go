package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"go.uber.org/zap"
)

// ActiveReservationLookup массовая проверка активных броней для календаря
type ActiveReservationLookup interface {
	ActiveSlotIDs(ctx context.Context, tx repository.Tx, slotIDs []int64) (map[int64]bool, error)
}

type CalendarEntry struct {
	SlotID         int64          `json:"id"`
	StartTime      timeslot.Clock `json:"start_time"`
	EndTime        timeslot.Clock `json:"end_time"`
	Duration       int            `json:"duration"`
	IsAvailable    bool           `json:"is_available"`
	HasReservation bool           `json:"has_reservation"`
}

// Calendar слоты по датам (ключ YYYY-MM-DD), внутри дня по времени начала
type Calendar map[string][]CalendarEntry

// CalendarService только читает: слоты плюс фактическое наличие броней
type CalendarService struct {
	txm          repository.TxManager
	reservations ActiveReservationLookup
	clock        Clock
	logger       *zap.Logger
}

func NewCalendarService(
	txm repository.TxManager,
	reservations ActiveReservationLookup,
	clock Clock,
	logger *zap.Logger,
) *CalendarService {
	return &CalendarService{
		txm:          txm,
		reservations: reservations,
		clock:        clock,
		logger:       logger,
	}
}

// CalendarFor календарь учителя для отображения
func (s *CalendarService) CalendarFor(ctx context.Context, teacherID int64, dates timeslot.DateRange) (Calendar, error) {
	entries, err := s.entries(ctx, teacherID, dates)
	if err != nil {
		return nil, err
	}

	calendar := make(Calendar)
	for _, e := range entries {
		key := e.date.String()
		calendar[key] = append(calendar[key], e.CalendarEntry)
	}

	return calendar, nil
}

// AvailableSlots календарь только из свободных и ещё не начавшихся слотов
func (s *CalendarService) AvailableSlots(ctx context.Context, teacherID int64, dates timeslot.DateRange) (Calendar, error) {
	entries, err := s.entries(ctx, teacherID, dates)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	calendar := make(Calendar)
	for _, e := range entries {
		if !e.IsAvailable || e.HasReservation || !e.startsAt.After(now) {
			continue
		}
		key := e.date.String()
		calendar[key] = append(calendar[key], e.CalendarEntry)
	}

	return calendar, nil
}

type datedEntry struct {
	CalendarEntry
	date     timeslot.Date
	startsAt time.Time
}

// entries читает слоты и активные брони в одной транзакции.
// has_reservation считается по таблице броней, а не по флагу слота.
func (s *CalendarService) entries(ctx context.Context, teacherID int64, dates timeslot.DateRange) ([]datedEntry, error) {
	var (
		slots  []*model.LessonSlot
		active map[int64]bool
	)

	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		teacher, err := tx.Teachers().GetByID(ctx, teacherID)
		if err != nil {
			return err
		}
		if teacher == nil {
			return fmt.Errorf("teacher %d: %w", teacherID, model.ErrNotFound)
		}

		slots, err = tx.Slots().ListByTeacher(ctx, teacherID, dates)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(slots))
		for _, slot := range slots {
			ids = append(ids, slot.ID)
		}

		active, err = s.reservations.ActiveSlotIDs(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	loc := s.clock.Now().Location()
	entries := make([]datedEntry, 0, len(slots))
	for _, slot := range slots {
		hasReservation := active[slot.ID]
		if hasReservation == slot.IsAvailable {
			s.logger.Warn("Slot availability disagrees with reservations",
				zap.Int64("slot_id", slot.ID),
				zap.Bool("is_available", slot.IsAvailable),
				zap.Bool("has_reservation", hasReservation),
			)
		}

		entries = append(entries, datedEntry{
			CalendarEntry: CalendarEntry{
				SlotID:         slot.ID,
				StartTime:      slot.StartTime,
				EndTime:        slot.EndTime,
				Duration:       slot.Duration,
				IsAvailable:    slot.IsAvailable,
				HasReservation: hasReservation,
			},
			date:     slot.Date,
			startsAt: slot.StartsAt(loc),
		})
	}

	return entries, nil
}
