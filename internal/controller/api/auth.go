package api

import (
	"net/http"
)

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	session, err := a.services.Teachers.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusCreated, session)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	session, err := a.services.Teachers.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, session)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	teacher, err := a.services.Teachers.GetTeacher(r.Context(), teacherIDFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.ok(w, http.StatusOK, map[string]any{"teacher": teacher})
}
