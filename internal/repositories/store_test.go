package repositories_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/survey"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

func TestProjectRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	project, err := store.CreateProject(ctx, "Checkout redesign", "Q3 experiments")
	require.NoError(t, err)
	require.Positive(t, project.ID)

	got, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, "Checkout redesign", got.Name)
	require.Equal(t, "Q3 experiments", got.Description)
	require.WithinDuration(t, project.CreatedAt, got.CreatedAt, time.Second)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, store.DeleteProject(ctx, project.ID))
	_, err = store.GetProject(ctx, project.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	require.ErrorIs(t, store.DeleteProject(ctx, project.ID), models.ErrNotFound)
}

func TestPersonaRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	fixtures, err := store.ListPersonas(ctx)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	require.Equal(t, "Luxury Buyer", fixtures[0].Name)
	require.Equal(t, null.StringFrom("Shopper"), fixtures[0].Role)
	require.Equal(t, models.Traits{}, fixtures[0].Traits)

	created, err := store.CreatePersona(ctx, models.Persona{
		Name:        "Student",
		Description: null.StringFrom("Tight budget"),
		Traits:      models.Traits{"age": float64(21), "tech_savvy": true},
	})
	require.NoError(t, err)

	got, err := store.GetPersona(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Student", got.Name)
	require.False(t, got.Role.Valid)
	require.Equal(t, null.StringFrom("Tight budget"), got.Description)
	require.Equal(t, models.Traits{"age": float64(21), "tech_savvy": true}, got.Traits)

	byIDs, err := store.ListPersonasByIDs(ctx, []int64{created.ID, 404, fixtures[0].ID, created.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	require.Equal(t, fixtures[0].ID, byIDs[0].ID)
	require.Equal(t, created.ID, byIDs[1].ID)

	empty, err := store.ListPersonasByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, store.DeletePersona(ctx, created.ID))
	_, err = store.GetPersona(ctx, created.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestSurveyRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	project, err := store.CreateProject(ctx, "Pricing", "")
	require.NoError(t, err)
	other, err := store.CreateProject(ctx, "Onboarding", "")
	require.NoError(t, err)

	s, err := store.CreateSurvey(ctx, project.ID, "Plan names")
	require.NoError(t, err)
	_, err = store.CreateSurvey(ctx, other.ID, "Welcome email")
	require.NoError(t, err)

	_, err = store.CreateSurvey(ctx, 404, "Orphan")
	require.Error(t, err, "surveys must belong to an existing project")

	surveys, err := store.ListSurveys(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	require.Equal(t, "Plan names", surveys[0].Name)

	all, err := store.ListSurveys(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	second, err := store.AddQuestion(ctx, s.ID, "Which name?", "Pro", "Plus")
	require.NoError(t, err)
	first, err := store.AddQuestion(ctx, s.ID, "Which price?", "$10", "$12")
	require.NoError(t, err)

	questions, err := store.ListQuestions(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{second.ID, first.ID}, []int64{questions[0].ID, questions[1].ID})
	require.Equal(t, "Pro", questions[0].VariantA)
	require.Equal(t, "Plus", questions[0].VariantB)

	require.NoError(t, store.DeleteProject(ctx, project.ID))
	_, err = store.GetSurvey(ctx, s.ID)
	require.ErrorIs(t, err, models.ErrNotFound, "surveys are deleted with their project")
	questions, err = store.ListQuestions(ctx, s.ID)
	require.NoError(t, err)
	require.Empty(t, questions)
}

func TestRunRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	project, err := store.CreateProject(ctx, "Pricing", "")
	require.NoError(t, err)
	s, err := store.CreateSurvey(ctx, project.ID, "Plan names")
	require.NoError(t, err)
	question, err := store.AddQuestion(ctx, s.ID, "Which name?", "Pro", "Plus")
	require.NoError(t, err)

	now := time.Now().UTC()
	run := models.Run{
		ID:              "2f1c6f39-5d0e-4a8e-9a39-1d8f6f1f6a11",
		SurveyID:        s.ID,
		Status:          models.RunStatusRunning,
		SampleSize:      2,
		PersonaIDs:      models.IDList{1, 2},
		Model:           "gpt-4o-mini",
		Temperature:     0.3,
		Seed:            42,
		EnableRawOutput: true,
		CreatedAt:       now,
		StartedAt:       now,
	}
	require.NoError(t, store.CreateRun(ctx, &run))

	response := models.Response{
		RunID:         run.ID,
		SurveyID:      s.ID,
		PersonaID:     1,
		QuestionID:    question.ID,
		Preference:    models.VariantB,
		Rationale:     "Sounds premium",
		Confidence:    0.7,
		ResponseIndex: 1,
		RawOutput:     null.StringFrom(`{"preference":"B"}`),
		CreatedAt:     now,
	}
	require.NoError(t, store.InsertResponse(ctx, &response))
	require.Positive(t, response.ID)

	invalid := response
	invalid.Preference = "C"
	require.Error(t, store.InsertResponse(ctx, &invalid), "only A and B are valid preferences")

	result := models.Result{
		RunID:              run.ID,
		SurveyID:           s.ID,
		PersonaID:          1,
		VariantAPreference: 0.25,
		VariantBPreference: 0.75,
		ConfidenceInterval: 0.3,
		RationaleClusters:  models.RationaleClusters{{Text: "sounds premium", Count: 3}},
		CreatedAt:          now,
	}
	require.NoError(t, store.InsertResult(ctx, &result))
	require.Positive(t, result.ID)

	count, err := store.CountResponses(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, store.FinishRun(ctx, run.ID, models.RunStatusSucceeded, now, ""))
	require.ErrorIs(t, store.FinishRun(ctx, run.ID, models.RunStatusFailed, now, "late"), models.ErrNotFound,
		"terminal runs do not transition again")

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusSucceeded, got.Status)
	require.Equal(t, models.IDList{1, 2}, got.PersonaIDs)
	require.True(t, got.EnableRawOutput)
	require.Equal(t, int64(42), got.Seed)
	require.True(t, got.FinishedAt.Valid)
	require.False(t, got.ErrorSummary.Valid)

	runResults, err := store.ListRunResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, runResults, 1)
	require.Equal(t, result.RationaleClusters, runResults[0].RationaleClusters)
	require.InDelta(t, 0.75, runResults[0].VariantBPreference, 0)

	surveyResults, err := store.ListResults(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, surveyResults, 1)

	_, err = store.GetRun(ctx, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_RunSurvey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	project, err := store.CreateProject(ctx, "Pricing", "")
	require.NoError(t, err)
	s, err := store.CreateSurvey(ctx, project.ID, "Plans")
	require.NoError(t, err)
	_, err = store.AddQuestion(ctx, s.ID, "Which name?", "Pro", "Plus")
	require.NoError(t, err)
	_, err = store.AddQuestion(ctx, s.ID, "Which price?", "$10", "$12")
	require.NoError(t, err)

	// Sampler draws run concurrently but the completer below is safe for concurrent use.
	completer := ai.CompleterFunc(func(_ context.Context, req ai.CompletionRequest) (string, error) {
		return `{"preference":"B","rationale":"Clearer","confidence":0.9}`, nil
	})
	logger := testhelpers.NewLogger(io.Discard)
	metrics := survey.NewMetrics(prometheus.NewRegistry())
	sampler := survey.NewSampler(survey.NewGenerator(completer, metrics), 0, logger, metrics)
	runner := survey.NewRunner(store, sampler, survey.RunnerConfig{
		Model:             "gpt-4o-mini",
		Temperature:       0.3,
		DefaultSampleSize: 20,
		MaxSampleSize:     50,
	}, logger, metrics)

	result, err := runner.RunSurvey(ctx, s.ID, []int64{1, 2}, 10)
	require.NoError(t, err)

	count, err := store.CountResponses(ctx, result.RunID)
	require.NoError(t, err)
	require.Equal(t, 40, count)

	results, err := store.ListRunResults(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		require.InDelta(t, 0.0, res.VariantAPreference, 0)
		require.InDelta(t, 1.0, res.VariantBPreference, 0)
		require.Equal(t, models.RationaleClusters{{Text: "clearer", Count: 20}}, res.RationaleClusters)
	}

	run, err := store.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusSucceeded, run.Status)
	require.True(t, run.FinishedAt.Valid)
}
