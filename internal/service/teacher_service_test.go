package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/auth"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTeacherService(issuer *auth.Issuer) *TeacherService {
	s := NewTeacherService(memory.NewStore(), issuer, zap.NewNop())
	s.hashCost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	issuer := auth.NewIssuer("secret", time.Hour)
	s := newTeacherService(issuer)

	registered, err := s.Register(ctx, " Anna ", "Anna@Example.com", "password123")
	require.NoError(t, err)
	teacher := registered.Teacher
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "Anna", teacher.Name)
	assert.Equal(t, "anna@example.com", teacher.Email)
	assert.NotEqual(t, "password123", teacher.PasswordHash)

	_, err = s.Register(ctx, "Other", "anna@example.com", "password456")
	assert.ErrorIs(t, err, model.ErrEmailTaken)

	session, err := s.Login(ctx, "ANNA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, session.Teacher.ID)

	teacherID, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, teacherID)

	_, err = s.Login(ctx, "anna@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	got, err := s.GetTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher.Email, got.Email)

	_, err = s.GetTeacher(ctx, teacher.ID+1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	s := newTeacherService(auth.NewIssuer("secret", time.Hour))

	tests := []struct {
		name, teacherName, email, password, field string
	}{
		{name: "empty name", teacherName: " ", email: "a@example.com", password: "password123", field: "name"},
		{name: "bad email", teacherName: "Anna", email: "not-an-email", password: "password123", field: "email"},
		{name: "short password", teacherName: "Anna", email: "a@example.com", password: "short", field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.teacherName, tt.email, tt.password)
			var validationErr *model.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}
