package timeslot

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration = errors.New("duration must be 30 or 60 minutes")
	ErrCrossesMidnight = errors.New("slot must end by 24:00 of the same day")
	ErrInvalidStart    = errors.New("start time must be between 00:00 and 23:59")
)

// AllowedDurations допустимые длительности занятия в минутах
var AllowedDurations = []int{30, 60}

// ValidDuration проверяет что длительность входит в допустимый набор
func ValidDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// ComputeEnd вычисляет время окончания слота: start + duration.
// Перевода между часовыми поясами нет.
func ComputeEnd(start Clock, durationMinutes int) (Clock, error) {
	if !ValidDuration(durationMinutes) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationMinutes)
	}
	if !start.Valid() || start == EndOfDay {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidStart, int(start))
	}

	end := start + Clock(durationMinutes)
	if end > EndOfDay {
		return 0, fmt.Errorf("%w: %s + %d min", ErrCrossesMidnight, start, durationMinutes)
	}

	return end, nil
}

// Overlaps возвращает true если полуинтервалы [aStart, aEnd) и [bStart, bEnd) пересекаются.
// Слот, заканчивающийся ровно в момент начала другого, пересечением не считается.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	return aStart < bEnd && aEnd > bStart
}
