package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"go.uber.org/zap"
)

// errBadRequest тело запроса не разобрать как JSON
var errBadRequest = errors.New("malformed request body")

// unprocessable доменные отказы, которые клиент может исправить
var unprocessable = []error{
	model.ErrOverlap,
	model.ErrHasReservation,
	model.ErrSlotUnavailable,
	model.ErrPastDate,
	model.ErrAlreadyCancelled,
	model.ErrEmailTaken,
	timeslot.ErrInvalidDuration,
	timeslot.ErrCrossesMidnight,
	timeslot.ErrInvalidStart,
}

// fail переводит ошибку сервиса в HTTP-ответ
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		a.Response(w, http.StatusUnprocessableEntity, Response{
			Message: validationErr.Error(),
			Errors:  map[string]string{validationErr.Field: validationErr.Message},
		})
		return
	}

	var fieldsErr fieldErrors
	if errors.As(err, &fieldsErr) {
		a.Response(w, http.StatusUnprocessableEntity, Response{
			Message: "validation failed",
			Errors:  fieldsErr,
		})
		return
	}

	switch {
	case errors.Is(err, errBadRequest):
		a.Response(w, http.StatusBadRequest, Response{Message: err.Error()})
		return
	case errors.Is(err, model.ErrNotFound):
		a.Response(w, http.StatusNotFound, Response{Message: err.Error()})
		return
	case errors.Is(err, model.ErrInvalidCredentials):
		a.Response(w, http.StatusUnauthorized, Response{Message: err.Error()})
		return
	}

	for _, target := range unprocessable {
		if errors.Is(err, target) {
			a.Response(w, http.StatusUnprocessableEntity, Response{Message: err.Error()})
			return
		}
	}

	a.logger.Error("Request failed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	a.Response(w, http.StatusInternalServerError, Response{Message: "internal server error"})
}
