package memory

import (
	"context"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

type teacherRepo struct {
	tx *tx
}

func (r *teacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(teacher.Email)
	for _, existing := range s.teachers {
		if existing.Email == email {
			return model.ErrEmailTaken
		}
	}

	s.lastTeacherID++
	teacher.ID = s.lastTeacherID
	teacher.Email = email
	teacher.CreatedAt = s.now()

	stored := *teacher
	s.teachers[teacher.ID] = &stored

	id := teacher.ID
	r.tx.onRollback(func() {
		delete(s.teachers, id)
	})

	return nil
}

func (r *teacherRepo) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	teacher, ok := s.teachers[id]
	if !ok {
		return nil, nil
	}
	c := *teacher
	return &c, nil
}

func (r *teacherRepo) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, teacher := range s.teachers {
		if teacher.Email == email {
			c := *teacher
			return &c, nil
		}
	}
	return nil, nil
}

func (r *teacherRepo) Lock(ctx context.Context, id int64) (bool, error) {
	s := r.tx.store
	s.mu.RLock()
	_, ok := s.teachers[id]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if err := r.tx.lock(ctx, teacherKey(id)); err != nil {
		return false, err
	}
	return true, nil
}
