package model

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Student контакты ученика; логина у учеников нет
type Student struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Note  string `json:"note,omitempty"`
}

type Reservation struct {
	ID          int64             `json:"id"`
	SlotID      int64             `json:"slot_id"`
	Student     Student           `json:"student"`
	CancelToken string            `json:"-"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`

	// Заполняется сервисом для ответа, не хранится вместе с бронью
	Slot *LessonSlot `json:"slot,omitempty"`
}

func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}
