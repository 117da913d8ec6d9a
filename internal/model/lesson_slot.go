package model

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
)

// SlotState состояние слота, выводится из флага доступности
type SlotState string

const (
	SlotStateOpen     SlotState = "open"
	SlotStateReserved SlotState = "reserved"
)

type LessonSlot struct {
	ID          int64          `json:"id"`
	TeacherID   int64          `json:"teacher_id"`
	Date        timeslot.Date  `json:"date"`
	StartTime   timeslot.Clock `json:"start_time"`
	EndTime     timeslot.Clock `json:"end_time"`
	Duration    int            `json:"duration"` // минуты, 30 или 60
	IsAvailable bool           `json:"is_available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (s *LessonSlot) State() SlotState {
	if s.IsAvailable {
		return SlotStateOpen
	}
	return SlotStateReserved
}

// Overlaps проверяет пересечение с интервалом на ту же дату
func (s *LessonSlot) Overlaps(date timeslot.Date, start, end timeslot.Clock) bool {
	return s.Date.Equal(date) && timeslot.Overlaps(s.StartTime, s.EndTime, start, end)
}

// StartsAt момент начала слота в указанной локации
func (s *LessonSlot) StartsAt(loc *time.Location) time.Time {
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(),
		s.StartTime.Hour(), s.StartTime.Minute(), 0, 0, loc)
}
