package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
)

// Get* методы возвращают (nil, nil), если запись не найдена.

type TeacherRepository interface {
	// Create сохраняет учителя; model.ErrEmailTaken при повторном email
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*model.Teacher, error)
	// Lock сериализует изменения слотов учителя до конца транзакции.
	// Возвращает false, если учителя нет.
	Lock(ctx context.Context, id int64) (bool, error)
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.LessonSlot) error
	GetByID(ctx context.Context, id int64) (*model.LessonSlot, error)
	// GetByIDForUpdate как GetByID, но блокирует слот до конца транзакции
	GetByIDForUpdate(ctx context.Context, id int64) (*model.LessonSlot, error)
	// ListByTeacher слоты учителя в диапазоне дат, по (date, start_time)
	ListByTeacher(ctx context.Context, teacherID int64, dates timeslot.DateRange) ([]*model.LessonSlot, error)
	// HasOverlap ищет слот учителя на дату, пересекающий [start, end); excludeID=0 ничего не исключает
	HasOverlap(ctx context.Context, teacherID int64, date timeslot.Date, start, end timeslot.Clock, excludeID int64) (bool, error)
	Update(ctx context.Context, slot *model.LessonSlot) error
	SetAvailable(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
	// TeachersWithSlotsBefore учителя, у которых есть свободные слоты раньше даты
	TeachersWithSlotsBefore(ctx context.Context, before timeslot.Date) ([]int64, error)
	// DeleteOpenBefore удаляет свободные слоты учителя раньше даты
	DeleteOpenBefore(ctx context.Context, teacherID int64, before timeslot.Date) (int64, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetByCancelToken(ctx context.Context, token string) (*model.Reservation, error)
	ExistsActiveForSlot(ctx context.Context, slotID int64) (bool, error)
	// ActiveSlotIDs подмножество slotIDs, на которые есть активная бронь
	ActiveSlotIDs(ctx context.Context, slotIDs []int64) (map[int64]bool, error)
	// ListByStudentEmail брони ученика, новые первыми
	ListByStudentEmail(ctx context.Context, email string) ([]*model.Reservation, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) error
}

// Tx единица работы: репозитории, разделяющие одну транзакцию
type Tx interface {
	Teachers() TeacherRepository
	Slots() SlotRepository
	Reservations() ReservationRepository
}

// TxManager выполняет fn атомарно. Ошибка или паника в fn, как и отмена ctx,
// откатывают все изменения.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
