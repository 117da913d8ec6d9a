package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// TokenIssuer выдаёт bearer-токен учителю после входа
type TokenIssuer interface {
	Issue(teacherID int64) (string, time.Time, error)
}

// Session результат входа
type Session struct {
	Teacher   *model.Teacher `json:"teacher"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// TeacherService регистрация и вход учителей
type TeacherService struct {
	txm      repository.TxManager
	tokens   TokenIssuer
	hashCost int
	logger   *zap.Logger
}

func NewTeacherService(txm repository.TxManager, tokens TokenIssuer, logger *zap.Logger) *TeacherService {
	return &TeacherService{
		txm:      txm,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// Register создаёт учителя и сразу выдаёт токен; пароль хранится только в виде bcrypt-хеша
func (s *TeacherService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("email", "is not a valid address")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError("password", "must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	teacher := &model.Teacher{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	err = s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Teachers().Create(ctx, teacher)
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register teacher: %w", err)
	}

	s.logger.Info("Teacher registered",
		zap.Int64("teacher_id", teacher.ID),
		zap.String("email", teacher.Email),
	)

	return s.session(teacher)
}

// Login проверяет пароль и выдаёт токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *TeacherService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var teacher *model.Teacher
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		teacher, err = tx.Teachers().GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get teacher by email: %w", err)
	}

	if teacher == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("Login rejected", zap.Int64("teacher_id", teacher.ID))
		return nil, model.ErrInvalidCredentials
	}

	return s.session(teacher)
}

// GetTeacher получает учителя по ID
func (s *TeacherService) GetTeacher(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher *model.Teacher
	err := s.txm.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		teacher, err = tx.Teachers().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher %d: %w", id, model.ErrNotFound)
	}
	return teacher, nil
}

func (s *TeacherService) session(teacher *model.Teacher) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Session{
		Teacher:   teacher,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
