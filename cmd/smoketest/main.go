package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/zheruizz/another.ai-app/internal/e2etest"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/logging"
	"github.com/zheruizz/another.ai-app/internal/models"
)

// TestSurveyRun creates a throwaway project with one question, runs it with a single sample per persona and
// deletes the project again.
func TestSurveyRun(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute) //nolint:mnd // model calls are slow
	defer cancel()

	personas, err := client.ListPersonas(ctx)
	if err != nil {
		return errors.Wrap(err, "list personas")
	}
	if len(personas) == 0 {
		return errors.New("no personas found")
	}

	project, err := client.CreateProject(ctx, "smoke test", "created by smoketest")
	if err != nil {
		return errors.Wrap(err, "create project")
	}
	defer func() {
		_ = client.DeleteProject(context.WithoutCancel(ctx), project.ID)
	}()

	survey, err := client.CreateSurvey(ctx, project.ID, "smoke test")
	if err != nil {
		return errors.Wrap(err, "create survey")
	}
	if _, err = client.AddQuestion(ctx, survey.ID, "Which greeting do you prefer?", "Hello", "Hi"); err != nil {
		return errors.Wrap(err, "add question")
	}

	result, err := client.RunSurvey(ctx, survey.ID, []int64{personas[0].ID}, 1)
	if err != nil {
		return errors.Wrap(err, "run survey")
	}
	run, err := client.GetRun(ctx, result.RunID)
	if err != nil {
		return errors.Wrap(err, "get run")
	}
	if run.Run.Status != models.RunStatusSucceeded || run.ResponseCount != 1 {
		return errors.New("unexpected run state",
			slog.String("status", string(run.Run.Status)), slog.Int("responses", run.ResponseCount))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   = e2etest.NewClient(url)
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready", errors.SlogError(err))
		os.Exit(1)
	}
	if err := TestSurveyRun(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing survey run", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
