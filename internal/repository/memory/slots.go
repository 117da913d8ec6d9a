package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
)

type slotRepo struct {
	tx *tx
}

func (r *slotRepo) Create(_ context.Context, slot *model.LessonSlot) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSlotID++
	slot.ID = s.lastSlotID
	slot.CreatedAt = s.now()
	slot.UpdatedAt = slot.CreatedAt
	s.slots[slot.ID] = cloneSlot(slot)

	id := slot.ID
	r.tx.onRollback(func() {
		delete(s.slots, id)
	})

	return nil
}

func (r *slotRepo) GetByID(_ context.Context, id int64) (*model.LessonSlot, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, nil
	}
	return cloneSlot(slot), nil
}

func (r *slotRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.LessonSlot, error) {
	if err := r.tx.lock(ctx, slotKey(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *slotRepo) ListByTeacher(_ context.Context, teacherID int64, dates timeslot.DateRange) ([]*model.LessonSlot, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []*model.LessonSlot
	for _, slot := range s.slots {
		if slot.TeacherID == teacherID && dates.Contains(slot.Date) {
			slots = append(slots, cloneSlot(slot))
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime < slots[j].StartTime
	})

	return slots, nil
}

func (r *slotRepo) HasOverlap(_ context.Context, teacherID int64, date timeslot.Date, start, end timeslot.Clock, excludeID int64) (bool, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slot := range s.slots {
		if slot.TeacherID != teacherID || slot.ID == excludeID {
			continue
		}
		if slot.Overlaps(date, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *slotRepo) Update(_ context.Context, slot *model.LessonSlot) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.slots[slot.ID]
	if !ok {
		return model.ErrNotFound
	}

	updated := cloneSlot(existing)
	updated.Date = slot.Date
	updated.StartTime = slot.StartTime
	updated.EndTime = slot.EndTime
	updated.Duration = slot.Duration
	updated.UpdatedAt = s.now()
	s.slots[slot.ID] = updated
	slot.UpdatedAt = updated.UpdatedAt

	r.tx.onRollback(func() {
		s.slots[existing.ID] = existing
	})

	return nil
}

func (r *slotRepo) SetAvailable(_ context.Context, id int64, available bool) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.slots[id]
	if !ok {
		return model.ErrNotFound
	}

	updated := cloneSlot(existing)
	updated.IsAvailable = available
	updated.UpdatedAt = s.now()
	s.slots[id] = updated

	r.tx.onRollback(func() {
		s.slots[id] = existing
	})

	return nil
}

func (r *slotRepo) Delete(_ context.Context, id int64) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.slots[id]
	if !ok {
		return model.ErrNotFound
	}
	delete(s.slots, id)

	r.tx.onRollback(func() {
		s.slots[id] = existing
	})

	return nil
}

func (r *slotRepo) TeachersWithSlotsBefore(_ context.Context, before timeslot.Date) ([]int64, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var ids []int64
	for _, slot := range s.slots {
		if slot.IsAvailable && slot.Date.Before(before) && !seen[slot.TeacherID] {
			seen[slot.TeacherID] = true
			ids = append(ids, slot.TeacherID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *slotRepo) DeleteOpenBefore(_ context.Context, teacherID int64, before timeslot.Date) (int64, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, slot := range s.slots {
		if slot.TeacherID != teacherID || !slot.IsAvailable || !slot.Date.Before(before) {
			continue
		}

		existing := slot
		delete(s.slots, id)
		r.tx.onRollback(func() {
			s.slots[existing.ID] = existing
		})
		deleted++
	}

	return deleted, nil
}
