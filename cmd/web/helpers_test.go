package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/contexthelpers"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/survey"
	"github.com/zheruizz/another.ai-app/internal/testhelpers"
)

func newTestApplication() *application {
	return &application{ //nolint:exhaustruct // only the helpers are exercised
		logger:   testhelpers.NewLogger(io.Discard),
		validate: newValidator(),
	}
}

func TestApplication_errorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		message    string
		retryAfter string
	}{
		{
			name:    "validation",
			err:     errors.Mark(errors.New("persona_ids must be a non-empty array"), survey.ErrValidation),
			status:  http.StatusBadRequest,
			message: "persona_ids must be a non-empty array",
		},
		{
			name:    "not found",
			err:     errors.Wrap(models.ErrNotFound, "select survey"),
			status:  http.StatusNotFound,
			message: "not found",
		},
		{
			name:       "rate limited",
			err:        errors.Wrap(errors.Mark(errors.New("429"), ai.ErrRateLimited), "complete"),
			status:     http.StatusServiceUnavailable,
			message:    ai.ErrRateLimited.Error(),
			retryAfter: retryAfterSeconds,
		},
		{
			name:    "deadline",
			err:     errors.Wrap(context.DeadlineExceeded, "sample batch"),
			status:  http.StatusGatewayTimeout,
			message: "deadline exceeded",
		},
		{
			name:    "persistence failures stay internal",
			err:     errors.Mark(errors.New("disk I/O error"), survey.ErrPersistence),
			status:  http.StatusInternalServerError,
			message: "Internal Server Error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication()
			r := httptest.NewRequest(http.MethodGet, "/api/surveys/1", nil)
			r = contexthelpers.SetRequestID(r, "req-1")
			w := httptest.NewRecorder()

			app.errorResponse(w, r, tt.err)

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
			require.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tt.message, body.Error)
			require.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("surveyID", tt.value)
			got, err := pathID(r, "surveyID")
			if tt.wantErr {
				require.ErrorIs(t, err, errBadRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestApplication_readJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"question_text":"q","variant_a":"a","variant_b":"b"}`, wantErr: ""},
		{name: "missing variant", body: `{"question_text":"q","variant_a":"a"}`,
			wantErr: "addQuestionRequest.variant_b must satisfy required"},
		{name: "malformed", body: `{"question_text":`, wantErr: "invalid JSON body"},
		{name: "empty", body: ``, wantErr: "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req addQuestionRequest
			err := app.readJSON(httptest.NewRecorder(), r, &req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, "b", req.VariantB)
				return
			}
			require.ErrorIs(t, err, errBadRequest)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication()
	handler := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "close", w.Header().Get("Connection"))
}

func TestLogRequest_SetsRequestID(t *testing.T) {
	app := newTestApplication()
	var seen string
	handler := app.logRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contexthelpers.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get("X-Request-Id"))
	require.Equal(t, http.StatusTeapot, w.Code)
}
