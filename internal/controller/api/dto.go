package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createSlotRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	Duration  int    `json:"duration" validate:"required"`
}

type updateSlotRequest struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	Duration  *int    `json:"duration"`
}

type reserveRequest struct {
	SlotID       int64  `json:"slot_id" validate:"required,gt=0"`
	StudentName  string `json:"student_name" validate:"required,max=255"`
	StudentEmail string `json:"student_email" validate:"required,email,max=255"`
	StudentPhone string `json:"student_phone" validate:"omitempty,max=50"`
	Note         string `json:"note" validate:"omitempty,max=1000"`
}

// rangeQuery параметры календаря из query string
type rangeQuery struct {
	TeacherID string `json:"teacher_id" validate:"required,number"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// reservationResponse бронь для клиента; cancel_token отдаётся только при создании
type reservationResponse struct {
	*model.Reservation
	CancelToken string `json:"cancel_token,omitempty"`
}

// fieldErrors ошибки валидации по полям запроса
type fieldErrors map[string]string

func (e fieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// в ошибках используем имена полей из json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decode читает JSON-тело и валидирует его
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return a.check(dst)
}

func (a *API) check(dst any) error {
	err := a.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return fmt.Errorf("validate request: %w", err)
	}

	fields := make(fieldErrors, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		if fe.Param() == "15:04" {
			return "must be a time in HH:MM format"
		}
		return "must be a date in YYYY-MM-DD format"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "number":
		return "must be a number"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
