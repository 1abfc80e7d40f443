package main

import (
	"net/http"

	"github.com/zheruizz/another.ai-app/internal/models"
)

type createSurveyRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type addQuestionRequest struct {
	QuestionText string `json:"question_text" validate:"required,max=2000"`
	VariantA     string `json:"variant_a"     validate:"required,max=2000"`
	VariantB     string `json:"variant_b"     validate:"required,max=2000"`
}

type surveyResponse struct {
	Survey    *models.Survey    `json:"survey"`
	Questions []models.Question `json:"questions"`
}

func (app *application) createSurvey(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var req createSurveyRequest
	if err = app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err = app.store.GetProject(ctx, projectID); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	survey, err := app.store.CreateSurvey(ctx, projectID, req.Name)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, survey)
}

func (app *application) listSurveys(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	surveys, err := app.store.ListSurveys(r.Context(), projectID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, surveys)
}

func (app *application) getSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	ctx := r.Context()
	survey, err := app.store.GetSurvey(ctx, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	questions, err := app.store.ListQuestions(ctx, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, surveyResponse{Survey: survey, Questions: questions})
}

func (app *application) deleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err = app.store.DeleteSurvey(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) addQuestion(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	var req addQuestionRequest
	if err = app.readJSON(w, r, &req); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err = app.store.GetSurvey(ctx, surveyID); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	question, err := app.store.AddQuestion(ctx, surveyID, req.QuestionText, req.VariantA, req.VariantB)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, question)
}

func (app *application) listQuestions(w http.ResponseWriter, r *http.Request) {
	surveyID, err := pathID(r, "surveyID")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	questions, err := app.store.ListQuestions(r.Context(), surveyID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, questions)
}
