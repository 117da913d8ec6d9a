package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFailStatus(t *testing.T) {
	t.Parallel()

	a := NewAPI(Services{}, nil, zap.NewNop())

	_, invalidStart := timeslot.ComputeEnd(timeslot.EndOfDay, 30)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "start at end of day", err: invalidStart, want: http.StatusUnprocessableEntity},
		{name: "overlap", err: fmt.Errorf("%w: 10:00-10:30", model.ErrOverlap), want: http.StatusUnprocessableEntity},
		{name: "validation", err: model.NewValidationError("email", "is required"), want: http.StatusUnprocessableEntity},
		{name: "not found", err: model.ErrNotFound, want: http.StatusNotFound},
		{name: "bad credentials", err: model.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "malformed body", err: errBadRequest, want: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			a.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
