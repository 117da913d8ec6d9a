package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"go.uber.org/zap"
)

// ReservationChecker отвечает есть ли на слот активная бронь (в той же транзакции)
type ReservationChecker interface {
	HasActiveReservation(ctx context.Context, tx repository.Tx, slotID int64) (bool, error)
}

type CreateSlotInput struct {
	Date      timeslot.Date
	StartTime timeslot.Clock
	Duration  int
}

// UpdateSlotInput nil-поля берутся из текущего слота
type UpdateSlotInput struct {
	Date      *timeslot.Date
	StartTime *timeslot.Clock
	Duration  *int
}

// SlotService хранит слоты учителей и следит чтобы они не пересекались
type SlotService struct {
	txm          repository.TxManager
	reservations ReservationChecker
	clock        Clock
	logger       *zap.Logger
}

func NewSlotService(
	txm repository.TxManager,
	reservations ReservationChecker,
	clock Clock,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		txm:          txm,
		reservations: reservations,
		clock:        clock,
		logger:       logger,
	}
}

// ListSlots получает слоты учителя в диапазоне дат, по дате и времени начала
func (s *SlotService) ListSlots(ctx context.Context, teacherID int64, dates timeslot.DateRange) ([]*model.LessonSlot, error) {
	var slots []*model.LessonSlot
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		slots, err = tx.Slots().ListByTeacher(ctx, teacherID, dates)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	return slots, nil
}

// CreateSlot создаёт слот. Проверка пересечений и вставка идут в одной
// транзакции под блокировкой учителя.
func (s *SlotService) CreateSlot(ctx context.Context, teacherID int64, in CreateSlotInput) (*model.LessonSlot, error) {
	end, err := timeslot.ComputeEnd(in.StartTime, in.Duration)
	if err != nil {
		return nil, err
	}

	if in.Date.Before(today(s.clock)) {
		return nil, fmt.Errorf("%w: %s", model.ErrPastDate, in.Date)
	}

	slot := &model.LessonSlot{
		TeacherID:   teacherID,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     end,
		Duration:    in.Duration,
		IsAvailable: true,
	}

	err = s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := lockTeacher(ctx, tx, teacherID); err != nil {
			return err
		}

		if err := checkOverlap(ctx, tx, slot, 0); err != nil {
			return err
		}

		return tx.Slots().Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Stringer("date", slot.Date),
		zap.Stringer("start", slot.StartTime),
		zap.Stringer("end", slot.EndTime),
	)

	return slot, nil
}

// UpdateSlot меняет дату, время или длительность свободного слота
func (s *SlotService) UpdateSlot(ctx context.Context, teacherID, slotID int64, in UpdateSlotInput) (*model.LessonSlot, error) {
	var slot *model.LessonSlot

	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		slot, err = s.lockOwnSlot(ctx, tx, teacherID, slotID)
		if err != nil {
			return err
		}

		if in.Date != nil {
			if in.Date.Before(today(s.clock)) {
				return fmt.Errorf("%w: %s", model.ErrPastDate, in.Date)
			}
			slot.Date = *in.Date
		}
		if in.StartTime != nil {
			slot.StartTime = *in.StartTime
		}
		if in.Duration != nil {
			slot.Duration = *in.Duration
		}

		slot.EndTime, err = timeslot.ComputeEnd(slot.StartTime, slot.Duration)
		if err != nil {
			return err
		}

		if err := checkOverlap(ctx, tx, slot, slot.ID); err != nil {
			return err
		}

		return tx.Slots().Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Stringer("date", slot.Date),
		zap.Stringer("start", slot.StartTime),
		zap.Stringer("end", slot.EndTime),
	)

	return slot, nil
}

// DeleteSlot удаляет свободный слот
func (s *SlotService) DeleteSlot(ctx context.Context, teacherID, slotID int64) error {
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.lockOwnSlot(ctx, tx, teacherID, slotID); err != nil {
			return err
		}
		return tx.Slots().Delete(ctx, slotID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", teacherID),
	)

	return nil
}

// PruneExpired удаляет свободные слоты с датой раньше before.
// Каждый учитель обрабатывается отдельной транзакцией.
func (s *SlotService) PruneExpired(ctx context.Context, before timeslot.Date) (int64, error) {
	var teacherIDs []int64
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		teacherIDs, err = tx.Slots().TeachersWithSlotsBefore(ctx, before)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("find expired slots: %w", err)
	}

	var total int64
	for _, teacherID := range teacherIDs {
		var deleted int64
		err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := lockTeacher(ctx, tx, teacherID); err != nil {
				return err
			}
			var err error
			deleted, err = tx.Slots().DeleteOpenBefore(ctx, teacherID, before)
			return err
		})
		if err != nil {
			return total, fmt.Errorf("prune slots of teacher %d: %w", teacherID, err)
		}

		total += deleted
	}

	s.logger.Info("Expired slots pruned",
		zap.Stringer("before", before),
		zap.Int("teachers", len(teacherIDs)),
		zap.Int64("deleted", total),
	)

	return total, nil
}

// lockOwnSlot блокирует учителя и слот; слот чужого учителя считается ненайденным.
// Слот с активной бронью менять нельзя.
func (s *SlotService) lockOwnSlot(ctx context.Context, tx repository.Tx, teacherID, slotID int64) (*model.LessonSlot, error) {
	if err := lockTeacher(ctx, tx, teacherID); err != nil {
		return nil, err
	}

	slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil || slot.TeacherID != teacherID {
		return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrNotFound)
	}

	reserved, err := s.reservations.HasActiveReservation(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if reserved {
		return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrHasReservation)
	}

	return slot, nil
}

func lockTeacher(ctx context.Context, tx repository.Tx, teacherID int64) error {
	ok, err := tx.Teachers().Lock(ctx, teacherID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("teacher %d: %w", teacherID, model.ErrNotFound)
	}
	return nil
}

func checkOverlap(ctx context.Context, tx repository.Tx, slot *model.LessonSlot, excludeID int64) error {
	overlap, err := tx.Slots().HasOverlap(ctx, slot.TeacherID, slot.Date, slot.StartTime, slot.EndTime, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return fmt.Errorf("%w: %s %s-%s", model.ErrOverlap, slot.Date, slot.StartTime, slot.EndTime)
	}
	return nil
}
