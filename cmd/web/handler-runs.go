package main

import (
	"context"
	"net/http"

	"github.com/zheruizz/another.ai-app/internal/models"
)

type runSurveyRequest struct {
	PersonaIDs []int64 `json:"persona_ids" validate:"dive,gt=0"`
	// SampleSize zero selects the configured default.
	SampleSize int `json:"sample_size" validate:"gte=0"`
}

type runDetailsResponse struct {
	Run           *models.Run     `json:"run"`
	Results       []models.Result `json:"results"`
	ResponseCount int             `json:"response_count"`
}

// runSurvey executes a survey synchronously and responds with the per-persona aggregates.
func (app *application) runSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var req runSurveyRequest
	if err = app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), app.runTimeout)
	defer cancel()
	if _, err = app.store.GetSurvey(ctx, surveyID); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	result, err := app.runner.RunSurvey(ctx, surveyID, req.PersonaIDs, req.SampleSize)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}

func (app *application) listResults(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	results, err := app.store.ListResults(r.Context(), surveyID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, results)
}

func (app *application) getRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	ctx := r.Context()
	run, err := app.store.GetRun(ctx, runID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	results, err := app.store.ListRunResults(ctx, runID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	count, err := app.store.CountResponses(ctx, runID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, runDetailsResponse{Run: run, Results: results, ResponseCount: count})
}
