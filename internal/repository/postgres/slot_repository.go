package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const slotColumns = `id, teacher_id, date, start_time::text, end_time::text, duration, is_available, created_at, updated_at`

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.LessonSlot) error {
	query := `
		INSERT INTO lesson_slots (teacher_id, date, start_time, end_time, duration, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.Date.Time,
		clockParam(slot.StartTime),
		clockParam(slot.EndTime),
		slot.Duration,
		slot.IsAvailable,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.LessonSlot, error) {
	query := `SELECT ` + slotColumns + `
		FROM lesson_slots
		WHERE id = $1
	`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот и блокирует его строку до конца транзакции
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.LessonSlot, error) {
	query := `SELECT ` + slotColumns + `
		FROM lesson_slots
		WHERE id = $1
		FOR UPDATE
	`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// ListByTeacher получает слоты учителя в диапазоне дат (индекс teacher_id, date, start_time)
func (r *SlotRepository) ListByTeacher(ctx context.Context, teacherID int64, dates timeslot.DateRange) ([]*model.LessonSlot, error) {
	query := `SELECT ` + slotColumns + `
		FROM lesson_slots
		WHERE teacher_id = $1
		  AND date BETWEEN $2 AND $3
		ORDER BY date, start_time
	`

	rows, err := r.db.Query(ctx, query, teacherID, dates.From.Time, dates.To.Time)
	if err != nil {
		return nil, fmt.Errorf("list slots by teacher: %w", err)
	}
	defer rows.Close()

	var slots []*model.LessonSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// HasOverlap проверяет есть ли у учителя слот, пересекающий [start, end) в эту дату:
// существующее начало < нового конца и существующий конец > нового начала
func (r *SlotRepository) HasOverlap(ctx context.Context, teacherID int64, date timeslot.Date, start, end timeslot.Clock, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM lesson_slots
			WHERE teacher_id = $1
			  AND date = $2
			  AND start_time < $3
			  AND end_time > $4
			  AND id <> $5
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, teacherID, date.Time, clockParam(end), clockParam(start), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}

	return exists, nil
}

// Update обновляет дату, время и длительность слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.LessonSlot) error {
	query := `
		UPDATE lesson_slots
		SET date = $1, start_time = $2, end_time = $3, duration = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.Date.Time,
		clockParam(slot.StartTime),
		clockParam(slot.EndTime),
		slot.Duration,
		slot.ID,
	).Scan(&slot.UpdatedAt)

	if err != nil {
		if IsNotFound(err) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// SetAvailable переключает флаг доступности слота
func (r *SlotRepository) SetAvailable(ctx context.Context, id int64, available bool) error {
	query := `
		UPDATE lesson_slots
		SET is_available = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, available, id)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// Delete удаляет слот
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM lesson_slots WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// TeachersWithSlotsBefore учителя со свободными слотами раньше даты
func (r *SlotRepository) TeachersWithSlotsBefore(ctx context.Context, before timeslot.Date) ([]int64, error) {
	query := `
		SELECT DISTINCT teacher_id
		FROM lesson_slots
		WHERE date < $1 AND is_available
		ORDER BY teacher_id
	`

	rows, err := r.db.Query(ctx, query, before.Time)
	if err != nil {
		return nil, fmt.Errorf("list teachers with expired slots: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan teacher id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DeleteOpenBefore удаляет свободные слоты учителя раньше даты
func (r *SlotRepository) DeleteOpenBefore(ctx context.Context, teacherID int64, before timeslot.Date) (int64, error) {
	query := `
		DELETE FROM lesson_slots
		WHERE teacher_id = $1
		  AND date < $2
		  AND is_available
	`

	result, err := r.db.Exec(ctx, query, teacherID, before.Time)
	if err != nil {
		return 0, fmt.Errorf("delete expired slots: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanSlot(row pgx.Row) (*model.LessonSlot, error) {
	var (
		slot       model.LessonSlot
		start, end string
	)
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.Date.Time,
		&start,
		&end,
		&slot.Duration,
		&slot.IsAvailable,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if slot.StartTime, err = timeslot.ParseClock(start); err != nil {
		return nil, err
	}
	if slot.EndTime, err = timeslot.ParseClock(end); err != nil {
		return nil, err
	}
	slot.Date = timeslot.DateOf(slot.Date.Time)

	return &slot, nil
}

func clockParam(c timeslot.Clock) pgtype.Time {
	return pgtype.Time{
		Microseconds: int64(c) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}
}
