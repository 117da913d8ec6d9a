package service

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
)

// Clock источник текущего времени; в тестах подменяется
type Clock interface {
	Now() time.Time
}

// RealClock системное время в часовом поясе школы
type RealClock struct {
	Location *time.Location
}

func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// today дата "сегодня" в локации часов
func today(clock Clock) timeslot.Date {
	return timeslot.DateOf(clock.Now())
}
