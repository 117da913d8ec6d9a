package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

const teacherEmailKey = "teachers_email_key"

type TeacherRepository struct {
	db DBTX
}

func NewTeacherRepository(db DBTX) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Create создаёт нового учителя
func (r *TeacherRepository) Create(ctx context.Context, teacher *model.Teacher) error {
	query := `
		INSERT INTO teachers (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		teacher.Name,
		strings.ToLower(teacher.Email),
		teacher.PasswordHash,
	).Scan(&teacher.ID, &teacher.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, teacherEmailKey) {
			return model.ErrEmailTaken
		}
		return fmt.Errorf("create teacher: %w", err)
	}

	return nil
}

// GetByID получает учителя по ID
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM teachers
		WHERE id = $1
	`

	teacher, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}
	return teacher, nil
}

// GetByEmail получает учителя по email без учёта регистра
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM teachers
		WHERE email = $1
	`

	teacher, err := r.scanOne(ctx, query, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("get teacher by email: %w", err)
	}
	return teacher, nil
}

// Lock блокирует строку учителя до конца транзакции
func (r *TeacherRepository) Lock(ctx context.Context, id int64) (bool, error) {
	query := `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`

	var locked int64
	err := r.db.QueryRow(ctx, query, id).Scan(&locked)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lock teacher: %w", err)
	}

	return true, nil
}

func (r *TeacherRepository) scanOne(ctx context.Context, query string, arg any) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.PasswordHash,
		&teacher.CreatedAt,
	)

	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &teacher, nil
}
