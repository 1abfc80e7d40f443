package models

import (
	"time"

	"github.com/guregu/null/v5"
	"github.com/zheruizz/another.ai-app/internal/errors"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.NewSentinel("not found")

// Project groups surveys.
type Project struct {
	ID          int64     `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

// Persona is a synthetic respondent profile used to condition generated preferences.
type Persona struct {
	ID          int64       `db:"id"          json:"id"`
	Name        string      `db:"name"        json:"name"`
	Role        null.String `db:"role"        json:"role"`
	Description null.String `db:"description" json:"description"`
	AvatarURL   null.String `db:"avatar_url"  json:"avatar_url"`
	Traits      Traits      `db:"traits"      json:"traits"`
	CreatedAt   time.Time   `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"  json:"updated_at"`
}

// Survey is a named collection of A/B questions under a project.
type Survey struct {
	ID        int64     `db:"id"         json:"id"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Question is one forced-choice prompt with two text variants.
type Question struct {
	ID           int64     `db:"id"            json:"id"`
	SurveyID     int64     `db:"survey_id"     json:"survey_id"`
	QuestionText string    `db:"question_text" json:"question_text"`
	VariantA     string    `db:"variant_a"     json:"variant_a"`
	VariantB     string    `db:"variant_b"     json:"variant_b"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
