package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// Survey runs carry their own deadline.
	crud := alice.New(timeout(defaultTimeout))

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /metrics", app.metrics)

	mux.Handle("POST /api/projects", crud.ThenFunc(app.createProject))
	mux.Handle("GET /api/projects", crud.ThenFunc(app.listProjects))
	mux.Handle("GET /api/projects/{projectID}", crud.ThenFunc(app.getProject))
	mux.Handle("DELETE /api/projects/{projectID}", crud.ThenFunc(app.deleteProject))

	mux.Handle("POST /api/personas", crud.ThenFunc(app.createPersona))
	mux.Handle("GET /api/personas", crud.ThenFunc(app.listPersonas))
	mux.Handle("GET /api/personas/{personaID}", crud.ThenFunc(app.getPersona))
	mux.Handle("DELETE /api/personas/{personaID}", crud.ThenFunc(app.deletePersona))

	mux.Handle("POST /api/projects/{projectID}/surveys", crud.ThenFunc(app.createSurvey))
	mux.Handle("GET /api/projects/{projectID}/surveys", crud.ThenFunc(app.listSurveys))
	mux.Handle("GET /api/surveys/{surveyID}", crud.ThenFunc(app.getSurvey))
	mux.Handle("DELETE /api/surveys/{surveyID}", crud.ThenFunc(app.deleteSurvey))
	mux.Handle("POST /api/surveys/{surveyID}/questions", crud.ThenFunc(app.addQuestion))
	mux.Handle("GET /api/surveys/{surveyID}/questions", crud.ThenFunc(app.listQuestions))

	mux.HandleFunc("POST /api/surveys/{surveyID}/run", app.runSurvey)
	mux.Handle("GET /api/surveys/{surveyID}/results", crud.ThenFunc(app.listResults))
	mux.Handle("GET /api/runs/{runID}", crud.ThenFunc(app.getRun))

	mux.HandleFunc("/", app.notFound)

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return standard.Then(mux)
}
