// Package e2etest drives the HTTP API from tests and the smoke test binary.
package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

// APIError is returned for responses with a non-2xx status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// RunResult is the response of a survey run.
type RunResult struct {
	Message           string          `json:"message"`
	RunID             string          `json:"run_id"`
	Results           []models.Result `json:"results"`
	MissingPersonaIDs []int64         `json:"missing_persona_ids"`
}

// RunDetails is a stored run with its results.
type RunDetails struct {
	Run           models.Run      `json:"run"`
	Results       []models.Result `json:"results"`
	ResponseCount int             `json:"response_count"`
}

// SurveyDetails is a survey with its questions.
type SurveyDetails struct {
	Survey    models.Survey     `json:"survey"`
	Questions []models.Question `json:"questions"`
}

// NewPersona is the request body for creating a persona.
type NewPersona struct {
	Name        string         `json:"name"`
	Role        string         `json:"role,omitempty"`
	Description string         `json:"description,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Traits      map[string]any `json:"traits,omitempty"`
}

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a JSON API client for the server at url.
func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{Timeout: time.Minute}, //nolint:exhaustruct // defaults are fine
		url:    url,
	}
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Do sends body as JSON and decodes the response into out when out is not nil.
func (c *Client) Do(ctx context.Context, method, urlPath string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request", slog.String("method", method), slog.String("path", urlPath))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response", slog.String("path", urlPath))
	}
	return nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	var project models.Project
	body := map[string]string{"name": name, "description": description}
	if err := c.Do(ctx, http.MethodPost, "/api/projects", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) CreatePersona(ctx context.Context, persona NewPersona) (*models.Persona, error) {
	var created models.Persona
	if err := c.Do(ctx, http.MethodPost, "/api/personas", persona, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	var personas []models.Persona
	if err := c.Do(ctx, http.MethodGet, "/api/personas", nil, &personas); err != nil {
		return nil, err
	}
	return personas, nil
}

func (c *Client) CreateSurvey(ctx context.Context, projectID int64, name string) (*models.Survey, error) {
	var survey models.Survey
	path := fmt.Sprintf("/api/projects/%d/surveys", projectID)
	if err := c.Do(ctx, http.MethodPost, path, map[string]string{"name": name}, &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (c *Client) GetSurvey(ctx context.Context, surveyID int64) (*SurveyDetails, error) {
	var details SurveyDetails
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/surveys/%d", surveyID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) AddQuestion(
	ctx context.Context,
	surveyID int64,
	questionText, variantA, variantB string,
) (*models.Question, error) {
	var question models.Question
	body := map[string]string{"question_text": questionText, "variant_a": variantA, "variant_b": variantB}
	path := fmt.Sprintf("/api/surveys/%d/questions", surveyID)
	if err := c.Do(ctx, http.MethodPost, path, body, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// RunSurvey runs a survey. A sampleSize of zero lets the server pick its default.
func (c *Client) RunSurvey(ctx context.Context, surveyID int64, personaIDs []int64, sampleSize int) (*RunResult, error) {
	var result RunResult
	body := map[string]any{"persona_ids": personaIDs}
	if sampleSize != 0 {
		body["sample_size"] = sampleSize
	}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/surveys/%d/run", surveyID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListResults(ctx context.Context, surveyID int64) ([]models.Result, error) {
	var results []models.Result
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/surveys/%d/results", surveyID), nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*RunDetails, error) {
	var details RunDetails
	if err := c.Do(ctx, http.MethodGet, "/api/runs/"+runID, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), nil, nil)
}
