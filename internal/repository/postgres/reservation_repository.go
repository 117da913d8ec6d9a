package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/jackc/pgx/v5"
)

// частичный уникальный индекс: одна активная бронь на слот
const activeSlotKey = "reservations_active_slot_key"

const reservationColumns = `id, slot_id, student_name, student_email, student_phone, note, cancel_token, status, created_at, cancelled_at`

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create создаёт новую бронь
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	query := `
		INSERT INTO reservations (slot_id, student_name, student_email, student_phone, note, cancel_token, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		reservation.SlotID,
		reservation.Student.Name,
		reservation.Student.Email,
		reservation.Student.Phone,
		reservation.Student.Note,
		reservation.CancelToken,
		reservation.Status,
	).Scan(&reservation.ID, &reservation.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, activeSlotKey) {
			return model.ErrSlotUnavailable
		}
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

// GetByID получает бронь по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1
	`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return reservation, nil
}

// GetByCancelToken получает бронь по токену отмены
func (r *ReservationRepository) GetByCancelToken(ctx context.Context, token string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE cancel_token = $1
	`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by token: %w", err)
	}

	return reservation, nil
}

// ExistsActiveForSlot проверяет есть ли активная бронь на слот
func (r *ReservationRepository) ExistsActiveForSlot(ctx context.Context, slotID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE slot_id = $1 AND status = 'active'
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, slotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active reservation: %w", err)
	}

	return exists, nil
}

// ActiveSlotIDs возвращает слоты из списка, на которые есть активная бронь
func (r *ReservationRepository) ActiveSlotIDs(ctx context.Context, slotIDs []int64) (map[int64]bool, error) {
	active := make(map[int64]bool)
	if len(slotIDs) == 0 {
		return active, nil
	}

	query := `
		SELECT slot_id FROM reservations
		WHERE status = 'active' AND slot_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, slotIDs)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slotID int64
		if err := rows.Scan(&slotID); err != nil {
			return nil, fmt.Errorf("scan slot id: %w", err)
		}
		active[slotID] = true
	}

	return active, rows.Err()
}

// ListByStudentEmail получает все брони ученика, новые первыми
func (r *ReservationRepository) ListByStudentEmail(ctx context.Context, email string) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE student_email = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("get reservations by student: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, nil
}

// MarkCancelled переводит активную бронь в cancelled
func (r *ReservationRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = $1
		WHERE id = $2 AND status = 'active'
	`

	result, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrAlreadyCancelled
	}

	return nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var reservation model.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.SlotID,
		&reservation.Student.Name,
		&reservation.Student.Email,
		&reservation.Student.Phone,
		&reservation.Student.Note,
		&reservation.CancelToken,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
