package models

import (
	"time"

	"github.com/guregu/null/v5"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Variant is the option a persona prefers.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Run is one execution of a survey against a chosen persona set and sample size.
type Run struct {
	ID              string      `db:"id"                json:"id"`
	SurveyID        int64       `db:"survey_id"         json:"survey_id"`
	Status          RunStatus   `db:"status"            json:"status"`
	SampleSize      int         `db:"sample_size"       json:"sample_size"`
	PersonaIDs      IDList      `db:"persona_ids"       json:"persona_ids"`
	Model           string      `db:"model"             json:"model"`
	Temperature     float64     `db:"temperature"       json:"temperature"`
	Seed            int64       `db:"seed"              json:"seed"`
	EnableRawOutput bool        `db:"enable_raw_output" json:"enable_raw_output"`
	ErrorSummary    null.String `db:"error_summary"     json:"error_summary"`
	CreatedAt       time.Time   `db:"created_at"        json:"created_at"`
	StartedAt       time.Time   `db:"started_at"        json:"started_at"`
	FinishedAt      null.Time   `db:"finished_at"       json:"finished_at"`
}

// Response is one generated sample. Responses are append-only.
type Response struct {
	ID            int64       `db:"id"                 json:"id"`
	RunID         string      `db:"run_id"             json:"run_id"`
	SurveyID      int64       `db:"survey_id"          json:"survey_id"`
	PersonaID     int64       `db:"persona_id"         json:"persona_id"`
	QuestionID    int64       `db:"question_id"        json:"question_id"`
	Preference    Variant     `db:"variant_preference" json:"variant_preference"`
	Rationale     string      `db:"rationale"          json:"rationale"`
	Confidence    float64     `db:"confidence_score"   json:"confidence_score"`
	ResponseIndex int         `db:"response_index"     json:"response_index"`
	RawOutput     null.String `db:"raw_output"         json:"raw_output"`
	CreatedAt     time.Time   `db:"created_at"         json:"created_at"`
}

// RationaleCluster groups textually identical rationales.
type RationaleCluster struct {
	Text  string `json:"text"  yaml:"text"`
	Count int    `json:"count" yaml:"count"`
}

// Result is the aggregate of one persona's responses within a run.
type Result struct {
	ID                 int64             `db:"id"                   json:"id"`
	RunID              string            `db:"run_id"               json:"run_id"`
	SurveyID           int64             `db:"survey_id"            json:"survey_id"`
	PersonaID          int64             `db:"persona_id"           json:"persona_id"`
	VariantAPreference float64           `db:"variant_a_preference" json:"variant_a_preference"`
	VariantBPreference float64           `db:"variant_b_preference" json:"variant_b_preference"`
	ConfidenceInterval float64           `db:"confidence_interval"  json:"confidence_interval"`
	RationaleClusters  RationaleClusters `db:"rationale_clusters"   json:"rationale_clusters"`
	CreatedAt          time.Time         `db:"created_at"           json:"created_at"`
}
