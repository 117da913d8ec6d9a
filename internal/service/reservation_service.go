package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// ReservationService бронирует слоты и отменяет брони по токену
type ReservationService struct {
	txm    repository.TxManager
	tokens TokenGenerator
	clock  Clock
	logger *zap.Logger
}

func NewReservationService(
	txm repository.TxManager,
	tokens TokenGenerator,
	clock Clock,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		txm:    txm,
		tokens: tokens,
		clock:  clock,
		logger: logger,
	}
}

// Reserve бронирует слот для ученика. Проверка слота, создание брони и
// закрытие слота идут одной транзакцией под блокировкой слота, поэтому из
// параллельных попыток успешна ровно одна.
func (s *ReservationService) Reserve(ctx context.Context, slotID int64, student model.Student) (*model.Reservation, error) {
	student.Name = strings.TrimSpace(student.Name)
	student.Email = strings.ToLower(strings.TrimSpace(student.Email))
	if student.Name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	if student.Email == "" {
		return nil, model.NewValidationError("email", "is required")
	}

	token, err := s.tokens()
	if err != nil {
		return nil, fmt.Errorf("generate cancel token: %w", err)
	}

	reservation := &model.Reservation{
		SlotID:      slotID,
		Student:     student,
		CancelToken: token,
		Status:      model.ReservationStatusActive,
	}

	var slot *model.LessonSlot
	err = s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		slot, err = tx.Slots().GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return fmt.Errorf("slot %d: %w", slotID, model.ErrNotFound)
		}

		if !slot.IsAvailable {
			return fmt.Errorf("slot %d: %w", slotID, model.ErrSlotUnavailable)
		}

		active, err := s.HasActiveReservation(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("slot %d: %w", slotID, model.ErrSlotUnavailable)
		}

		now := s.clock.Now()
		if !slot.StartsAt(now.Location()).After(now) {
			return fmt.Errorf("slot %d has already started: %w", slotID, model.ErrSlotUnavailable)
		}

		if err := tx.Reservations().Create(ctx, reservation); err != nil {
			return err
		}

		if err := tx.Slots().SetAvailable(ctx, slotID, false); err != nil {
			return err
		}
		slot.IsAvailable = false

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot reserved",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.String("student_email", reservation.Student.Email),
	)

	reservation.Slot = slot
	return reservation, nil
}

// Cancel отменяет бронь по токену и снова открывает слот.
// Повторная отмена отклоняется с model.ErrAlreadyCancelled, слот не трогается.
func (s *ReservationService) Cancel(ctx context.Context, token string) (*model.Reservation, error) {
	if token == "" {
		return nil, fmt.Errorf("reservation: %w", model.ErrNotFound)
	}

	var reservation *model.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		found, err := tx.Reservations().GetByCancelToken(ctx, token)
		if err != nil {
			return err
		}
		if found == nil {
			return fmt.Errorf("reservation: %w", model.ErrNotFound)
		}

		// порядок блокировок: слот, затем бронь
		slot, err := tx.Slots().GetByIDForUpdate(ctx, found.SlotID)
		if err != nil {
			return err
		}

		reservation, err = tx.Reservations().GetByID(ctx, found.ID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return fmt.Errorf("reservation %d: %w", found.ID, model.ErrNotFound)
		}
		if !reservation.IsActive() {
			return fmt.Errorf("reservation %d: %w", reservation.ID, model.ErrAlreadyCancelled)
		}

		now := s.clock.Now()
		if err := tx.Reservations().MarkCancelled(ctx, reservation.ID, now); err != nil {
			return err
		}
		reservation.Status = model.ReservationStatusCancelled
		reservation.CancelledAt = &now

		if slot != nil {
			if err := tx.Slots().SetAvailable(ctx, slot.ID, true); err != nil {
				return err
			}
			slot.IsAvailable = true
			reservation.Slot = slot
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("slot_id", reservation.SlotID),
	)

	return reservation, nil
}

// GetReservation получает бронь по ID вместе со слотом
func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var reservation *model.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		reservation, err = tx.Reservations().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
		}

		reservation.Slot, err = tx.Slots().GetByID(ctx, reservation.SlotID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// ListForStudent получает все брони ученика по email, новые первыми
func (s *ReservationService) ListForStudent(ctx context.Context, email string) ([]*model.Reservation, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("email", "is required")
	}

	var reservations []*model.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		reservations, err = tx.Reservations().ListByStudentEmail(ctx, email)
		if err != nil {
			return err
		}

		for _, reservation := range reservations {
			reservation.Slot, err = tx.Slots().GetByID(ctx, reservation.SlotID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list student reservations: %w", err)
	}

	return reservations, nil
}

// HasActiveReservation проверяет есть ли на слот активная бронь
func (s *ReservationService) HasActiveReservation(ctx context.Context, tx repository.Tx, slotID int64) (bool, error) {
	return tx.Reservations().ExistsActiveForSlot(ctx, slotID)
}

// ActiveSlotIDs возвращает слоты из списка, на которые есть активная бронь
func (s *ReservationService) ActiveSlotIDs(ctx context.Context, tx repository.Tx, slotIDs []int64) (map[int64]bool, error) {
	return tx.Reservations().ActiveSlotIDs(ctx, slotIDs)
}
