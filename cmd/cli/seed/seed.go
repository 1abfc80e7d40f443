// Package seed loads projects, personas and surveys from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v5"
	"github.com/spf13/cobra"
	"github.com/zheruizz/another.ai-app/cmd/cli/services"
	"github.com/zheruizz/another.ai-app/internal/app"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"gopkg.in/yaml.v3"
)

var Group = &cobra.Group{
	ID:    "data",
	Title: "Data management",
}

// File is the layout of a seed file.
type File struct {
	Personas []Persona `yaml:"personas" validate:"dive"`
	Projects []Project `yaml:"projects" validate:"dive"`
}

type Persona struct {
	Name        string         `yaml:"name"        validate:"required,max=200"`
	Role        string         `yaml:"role"        validate:"max=200"`
	Description string         `yaml:"description" validate:"max=4000"`
	AvatarURL   string         `yaml:"avatar_url"  validate:"omitempty,url"`
	Traits      map[string]any `yaml:"traits"`
}

type Project struct {
	Name        string   `yaml:"name"        validate:"required,max=200"`
	Description string   `yaml:"description" validate:"max=2000"`
	Surveys     []Survey `yaml:"surveys"     validate:"dive"`
}

type Survey struct {
	Name      string     `yaml:"name"      validate:"required,max=200"`
	Questions []Question `yaml:"questions" validate:"dive"`
}

type Question struct {
	Text     string `yaml:"text"      validate:"required,max=2000"`
	VariantA string `yaml:"variant_a" validate:"required,max=2000"`
	VariantB string `yaml:"variant_b" validate:"required,max=2000"`
}

// Summary counts what Apply created.
type Summary struct {
	Personas  int
	Projects  int
	Surveys   int
	Questions int
}

// Parse decodes and validates a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode seed file")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(file); err != nil {
		return nil, errors.Wrap(err, "validate seed file")
	}
	return &file, nil
}

// Apply creates everything in file. It is not transactional; records created before a failure are kept.
func Apply(ctx context.Context, store app.Store, file *File) (Summary, error) {
	var summary Summary
	for _, p := range file.Personas {
		if _, err := store.CreatePersona(ctx, models.Persona{ //nolint:exhaustruct // set by the store
			Name:        p.Name,
			Role:        null.NewString(p.Role, p.Role != ""),
			Description: null.NewString(p.Description, p.Description != ""),
			AvatarURL:   null.NewString(p.AvatarURL, p.AvatarURL != ""),
			Traits:      p.Traits,
		}); err != nil {
			return summary, errors.Wrap(err, "create persona", slog.String("name", p.Name))
		}
		summary.Personas++
	}
	for _, p := range file.Projects {
		project, err := store.CreateProject(ctx, p.Name, p.Description)
		if err != nil {
			return summary, errors.Wrap(err, "create project", slog.String("name", p.Name))
		}
		summary.Projects++
		for _, s := range p.Surveys {
			survey, err := store.CreateSurvey(ctx, project.ID, s.Name)
			if err != nil {
				return summary, errors.Wrap(err, "create survey", slog.String("name", s.Name))
			}
			summary.Surveys++
			for _, q := range s.Questions {
				if _, err = store.AddQuestion(ctx, survey.ID, q.Text, q.VariantA, q.VariantB); err != nil {
					return summary, errors.Wrap(err, "add question", slog.Int64("survey_id", survey.ID))
				}
				summary.Questions++
			}
		}
	}
	return summary, nil
}

var Command = &cobra.Command{
	Use:     "seed [file.yaml]",
	GroupID: "data",
	Short:   "Load seed data",
	Long:    "Creates the personas, projects, surveys and questions described in a YAML file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open seed file")
		}
		defer func() {
			_ = f.Close()
		}()
		file, err := Parse(f)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		svc, _, err := services.Open(ctx, services.Logger())
		if err != nil {
			return err
		}
		defer func() {
			_ = svc.Close()
		}()

		summary, err := Apply(ctx, svc.Store, file)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d personas, %d projects, %d surveys, %d questions\n",
			summary.Personas, summary.Projects, summary.Surveys, summary.Questions)
		return nil
	},
}
