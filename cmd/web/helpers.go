package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/contexthelpers"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/survey"
)

const (
	maxBodyBytes = 1 << 20
	// retryAfterSeconds is sent with 503 responses caused by model provider rate limiting.
	retryAfterSeconds = "30"
)

var errBadRequest = errors.NewSentinel("bad request")

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// newValidator reports validation failures with the JSON field names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// readJSON decodes the request body into dst and validates it. Failures are marked errBadRequest.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid JSON body"), errBadRequest)
	}
	if err := app.validate.Struct(dst); err != nil {
		return errors.Mark(errors.New(validationMessage(err)), errBadRequest)
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Mark(errors.New(name+" must be a positive integer", slog.String(name, raw)), errBadRequest)
	}
	return id, nil
}

// errorResponse maps err to a status code by its kind.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, survey.ErrValidation):
		app.clientError(w, r, http.StatusBadRequest, err, err.Error())
	case errors.Is(err, models.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, err, models.ErrNotFound.Error())
	case errors.Is(err, ai.ErrRateLimited):
		w.Header().Set("Retry-After", retryAfterSeconds)
		app.clientError(w, r, http.StatusServiceUnavailable, err, ai.ErrRateLimited.Error())
	case errors.Is(err, context.DeadlineExceeded):
		app.clientError(w, r, http.StatusGatewayTimeout, err, "deadline exceeded")
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorBody{
		Error:     http.StatusText(http.StatusInternalServerError),
		RequestID: contexthelpers.RequestID(r.Context()),
	})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error, msg string) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	app.writeJSON(w, r, status, errorBody{
		Error:     msg,
		RequestID: contexthelpers.RequestID(r.Context()),
	})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, models.ErrNotFound, models.ErrNotFound.Error())
}
