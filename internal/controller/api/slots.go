package api

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/gorilla/mux"
)

// calendar GET /api/lesson-slots?teacher_id=1&start_date=2025-12-10&end_date=2025-12-16
func (a *API) calendar(w http.ResponseWriter, r *http.Request) {
	teacherID, dates, err := a.parseRangeQuery(r, "")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	calendar, err := a.services.Calendar.CalendarFor(r.Context(), teacherID, dates)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, calendar)
}

// listSlots GET /api/teachers/{id}/slots?start_date=...&end_date=...
func (a *API) listSlots(w http.ResponseWriter, r *http.Request) {
	teacherID, dates, err := a.parseRangeQuery(r, mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, r, err)
		return
	}

	slots, err := a.services.Slots.ListSlots(r.Context(), teacherID, dates)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if slots == nil {
		slots = []*model.LessonSlot{}
	}

	a.ok(w, http.StatusOK, slots)
}

func (a *API) createSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	date, err := timeslot.ParseDate(req.Date)
	if err != nil {
		a.fail(w, r, model.NewValidationError("date", "%v", err))
		return
	}
	start, err := timeslot.ParseClock(req.StartTime)
	if err != nil {
		a.fail(w, r, model.NewValidationError("start_time", "%v", err))
		return
	}

	slot, err := a.services.Slots.CreateSlot(r.Context(), teacherIDFrom(r.Context()), service.CreateSlotInput{
		Date:      date,
		StartTime: start,
		Duration:  req.Duration,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusCreated, slot)
}

func (a *API) updateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var req updateSlotRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	var in service.UpdateSlotInput
	if req.Date != nil {
		date, err := timeslot.ParseDate(*req.Date)
		if err != nil {
			a.fail(w, r, model.NewValidationError("date", "%v", err))
			return
		}
		in.Date = &date
	}
	if req.StartTime != nil {
		start, err := timeslot.ParseClock(*req.StartTime)
		if err != nil {
			a.fail(w, r, model.NewValidationError("start_time", "%v", err))
			return
		}
		in.StartTime = &start
	}
	in.Duration = req.Duration

	slot, err := a.services.Slots.UpdateSlot(r.Context(), teacherIDFrom(r.Context()), slotID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, slot)
}

func (a *API) deleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.services.Slots.DeleteSlot(r.Context(), teacherIDFrom(r.Context()), slotID); err != nil {
		a.fail(w, r, err)
		return
	}

	a.Response(w, http.StatusOK, Response{Message: "slot deleted"})
}

// parseRangeQuery teacher_id берётся из пути, если он там есть
func (a *API) parseRangeQuery(r *http.Request, pathTeacherID string) (int64, timeslot.DateRange, error) {
	q := r.URL.Query()
	query := rangeQuery{
		TeacherID: q.Get("teacher_id"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if pathTeacherID != "" {
		query.TeacherID = pathTeacherID
	}

	if err := a.check(&query); err != nil {
		return 0, timeslot.DateRange{}, err
	}

	teacherID, err := strconv.ParseInt(query.TeacherID, 10, 64)
	if err != nil {
		return 0, timeslot.DateRange{}, model.NewValidationError("teacher_id", "must be a number")
	}

	from, err := timeslot.ParseDate(query.StartDate)
	if err != nil {
		return 0, timeslot.DateRange{}, model.NewValidationError("start_date", "%v", err)
	}
	to, err := timeslot.ParseDate(query.EndDate)
	if err != nil {
		return 0, timeslot.DateRange{}, model.NewValidationError("end_date", "%v", err)
	}

	dates, err := timeslot.NewDateRange(from, to)
	if err != nil {
		return 0, timeslot.DateRange{}, model.NewValidationError("end_date", "%v", err)
	}

	return teacherID, dates, nil
}

// pathID ID из пути; маршрут уже гарантирует цифры
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, model.NewValidationError("id", "must be a number")
	}
	return id, nil
}
