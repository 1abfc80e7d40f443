package main

import (
	"net/http"
)

type createProjectRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (app *application) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	project, err := app.store.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, project)
}

func (app *application) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := app.store.ListProjects(r.Context())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, projects)
}

func (app *application) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	project, err := app.store.GetProject(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, project)
}

func (app *application) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err = app.store.DeleteProject(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
