package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

var errDuplicateToken = errors.New("duplicate cancel token")

type reservationRepo struct {
	tx *tx
}

func (r *reservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// то же, что частичный уникальный индекс в postgres
	for _, existing := range s.reservations {
		if existing.SlotID == reservation.SlotID && existing.IsActive() {
			return model.ErrSlotUnavailable
		}
	}
	if _, taken := s.tokens[reservation.CancelToken]; taken {
		return errDuplicateToken
	}

	s.lastReservationID++
	reservation.ID = s.lastReservationID
	reservation.CreatedAt = s.now()

	s.reservations[reservation.ID] = cloneReservation(reservation)
	s.tokens[reservation.CancelToken] = reservation.ID

	id, token := reservation.ID, reservation.CancelToken
	r.tx.onRollback(func() {
		delete(s.reservations, id)
		delete(s.tokens, token)
	})

	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id int64) (*model.Reservation, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	return cloneReservation(reservation), nil
}

func (r *reservationRepo) GetByCancelToken(_ context.Context, token string) (*model.Reservation, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	return cloneReservation(s.reservations[id]), nil
}

func (r *reservationRepo) ExistsActiveForSlot(_ context.Context, slotID int64) (bool, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, reservation := range s.reservations {
		if reservation.SlotID == slotID && reservation.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *reservationRepo) ActiveSlotIDs(_ context.Context, slotIDs []int64) (map[int64]bool, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(slotIDs))
	for _, id := range slotIDs {
		wanted[id] = true
	}

	active := make(map[int64]bool)
	for _, reservation := range s.reservations {
		if reservation.IsActive() && wanted[reservation.SlotID] {
			active[reservation.SlotID] = true
		}
	}
	return active, nil
}

func (r *reservationRepo) ListByStudentEmail(_ context.Context, email string) ([]*model.Reservation, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	var reservations []*model.Reservation
	for _, reservation := range s.reservations {
		if reservation.Student.Email == email {
			reservations = append(reservations, cloneReservation(reservation))
		}
	}

	sort.Slice(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return reservations, nil
}

func (r *reservationRepo) MarkCancelled(_ context.Context, id int64, at time.Time) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reservations[id]
	if !ok || !existing.IsActive() {
		return model.ErrAlreadyCancelled
	}

	updated := cloneReservation(existing)
	updated.Status = model.ReservationStatusCancelled
	updated.CancelledAt = &at
	s.reservations[id] = updated

	r.tx.onRollback(func() {
		s.reservations[id] = existing
	})

	return nil
}
