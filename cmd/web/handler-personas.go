package main

import (
	"net/http"

	"github.com/guregu/null/v5"
	"github.com/zheruizz/another.ai-app/internal/models"
)

type createPersonaRequest struct {
	Name        string         `json:"name"        validate:"required,max=200"`
	Role        *string        `json:"role"        validate:"omitempty,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=4000"`
	AvatarURL   *string        `json:"avatar_url"  validate:"omitempty,url"`
	Traits      map[string]any `json:"traits"`
}

func (app *application) createPersona(w http.ResponseWriter, r *http.Request) {
	var req createPersonaRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	persona, err := app.store.CreatePersona(r.Context(), models.Persona{ //nolint:exhaustruct // set by the store
		Name:        req.Name,
		Role:        null.StringFromPtr(req.Role),
		Description: null.StringFromPtr(req.Description),
		AvatarURL:   null.StringFromPtr(req.AvatarURL),
		Traits:      req.Traits,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, persona)
}

func (app *application) listPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := app.store.ListPersonas(r.Context())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, personas)
}

func (app *application) getPersona(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "personaID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	persona, err := app.store.GetPersona(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, persona)
}

func (app *application) deletePersona(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "personaID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err = app.store.DeletePersona(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
