package api

import (
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/gorilla/mux"
)

// availableSlots GET /api/reservations/available-slots?teacher_id=1&start_date=...&end_date=...
func (a *API) availableSlots(w http.ResponseWriter, r *http.Request) {
	teacherID, dates, err := a.parseRangeQuery(r, "")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	calendar, err := a.services.Calendar.AvailableSlots(r.Context(), teacherID, dates)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, calendar)
}

func (a *API) reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	reservation, err := a.services.Reservations.Reserve(r.Context(), req.SlotID, model.Student{
		Name:  req.StudentName,
		Email: req.StudentEmail,
		Phone: req.StudentPhone,
		Note:  req.Note,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// токен отмены показывается только один раз
	a.ok(w, http.StatusCreated, reservationResponse{
		Reservation: reservation,
		CancelToken: reservation.CancelToken,
	})
}

func (a *API) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	reservation, err := a.services.Reservations.GetReservation(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, reservationResponse{Reservation: reservation})
}

// cancelReservation POST /api/reservations/cancel/{cancelToken}
func (a *API) cancelReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := a.services.Reservations.Cancel(r.Context(), mux.Vars(r)["cancelToken"])
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.Response(w, http.StatusOK, Response{
		Message: "reservation cancelled",
		Data:    reservationResponse{Reservation: reservation},
	})
}

// studentHistory GET /api/reservations/student/history?email=...
func (a *API) studentHistory(w http.ResponseWriter, r *http.Request) {
	reservations, err := a.services.Reservations.ListForStudent(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	history := make([]reservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		history = append(history, reservationResponse{Reservation: reservation})
	}

	a.ok(w, http.StatusOK, history)
}
