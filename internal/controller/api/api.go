package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает HTTP API
type Services struct {
	Teachers     *service.TeacherService
	Slots        *service.SlotService
	Reservations *service.ReservationService
	Calendar     *service.CalendarService
}

// TokenParser проверяет bearer-токен и возвращает ID учителя
type TokenParser interface {
	Parse(token string) (int64, error)
}

type API struct {
	router   *mux.Router
	services Services
	tokens   TokenParser
	validate *validator.Validate
	origins  []string
	logger   *zap.Logger
}

type Option func(*API)

// WithAllowedOrigins origins для CORS; по умолчанию "*"
func WithAllowedOrigins(origins ...string) Option {
	return func(a *API) {
		a.origins = origins
	}
}

func NewAPI(services Services, tokens TokenParser, logger *zap.Logger, opts ...Option) *API {
	a := &API{
		router:   mux.NewRouter(),
		services: services,
		tokens:   tokens,
		validate: newValidator(),
		origins:  []string{"*"},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.registerRoutes()
	return a
}

// Handler роутер с общими middleware: request id, access log, recovery, CORS
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router

	h = handlers.CORS(
		handlers.AllowedOrigins(a.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: a.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	h = a.accessLog(h)
	h = requestID(h)

	return h
}

func (a *API) registerRoutes() {
	r := a.router.PathPrefix("/api").Subrouter()

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	r.Handle("/auth/me", a.requireTeacher(a.me)).Methods(http.MethodGet)

	r.HandleFunc("/lesson-slots", a.calendar).Methods(http.MethodGet)
	r.Handle("/lesson-slots", a.requireTeacher(a.createSlot)).Methods(http.MethodPost)
	r.Handle("/lesson-slots/{id:[0-9]+}", a.requireTeacher(a.updateSlot)).Methods(http.MethodPut)
	r.Handle("/lesson-slots/{id:[0-9]+}", a.requireTeacher(a.deleteSlot)).Methods(http.MethodDelete)
	r.HandleFunc("/teachers/{id:[0-9]+}/slots", a.listSlots).Methods(http.MethodGet)

	r.HandleFunc("/reservations/available-slots", a.availableSlots).Methods(http.MethodGet)
	r.HandleFunc("/reservations", a.reserve).Methods(http.MethodPost)
	r.HandleFunc("/reservations/student/history", a.studentHistory).Methods(http.MethodGet)
	r.HandleFunc("/reservations/cancel/{cancelToken}", a.cancelReservation).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id:[0-9]+}", a.getReservation).Methods(http.MethodGet)

	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		a.Response(w, http.StatusNotFound, Response{Message: "route not found"})
	})
	a.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		a.Response(w, http.StatusMethodNotAllowed, Response{Message: "method not allowed"})
	})
}

// Response общий конверт ответа
type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (a *API) Response(w http.ResponseWriter, status int, body Response) {
	body.Success = status < http.StatusBadRequest

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (a *API) ok(w http.ResponseWriter, status int, data any) {
	a.Response(w, status, Response{Data: data})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	a.ok(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("Recovered from panic in HTTP handler", zap.String("panic", fmt.Sprint(v...)))
}
