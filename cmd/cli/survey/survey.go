// Package survey runs surveys and shows their results from the command line.
package survey

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/zheruizz/another.ai-app/cmd/cli/services"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
)

var Group = &cobra.Group{
	ID:    "survey",
	Title: "Survey operations",
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

func init() {
	Run.Flags().Int64("survey", 0, "survey id")
	Run.Flags().Int64Slice("persona", nil, "persona id, repeatable")
	Run.Flags().Int("sample-size", 0, "samples per persona and question; 0 uses the configured default")
	_ = Run.MarkFlagRequired("survey")
	_ = Run.MarkFlagRequired("persona")

	Results.Flags().Int64("survey", 0, "survey id")
	_ = Results.MarkFlagRequired("survey")
}

// RenderResults writes results as a table, one row per persona.
func RenderResults(w io.Writer, results []models.Result, personaNames map[int64]string) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		name, ok := personaNames[r.PersonaID]
		if !ok {
			name = "#" + strconv.FormatInt(r.PersonaID, 10)
		}
		themes := make([]string, 0, len(r.RationaleClusters))
		for _, c := range r.RationaleClusters {
			themes = append(themes, fmt.Sprintf("%s (%d)", c.Text, c.Count))
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			name,
			percent(r.VariantAPreference),
			percent(r.VariantBPreference),
			"±" + percent(r.ConfidenceInterval),
			strings.Join(themes, "; "),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "PERSONA", "A", "B", "95% CI", "TOP RATIONALES").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, _ = fmt.Fprintln(w, t.String())
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func shortID(id string) string {
	if len(id) > 8 { //nolint:mnd // uuid prefix
		return id[:8]
	}
	return id
}

func personaNames(ctx context.Context, list func(context.Context) ([]models.Persona, error)) (map[int64]string, error) {
	personas, err := list(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list personas")
	}
	names := make(map[int64]string, len(personas))
	for _, p := range personas {
		names[p.ID] = p.Name
	}
	return names, nil
}

var Run = &cobra.Command{
	Use:     "run",
	GroupID: "survey",
	Short:   "Run a survey",
	Long:    "Samples every persona on every question of a survey and prints the aggregated preferences",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		surveyID, _ := cmd.Flags().GetInt64("survey")
		personaIDs, _ := cmd.Flags().GetInt64Slice("persona")
		sampleSize, _ := cmd.Flags().GetInt("sample-size")

		ctx := cmd.Context()
		svc, cfg, err := services.Open(ctx, services.Logger())
		if err != nil {
			return err
		}
		defer func() {
			_ = svc.Close()
		}()

		ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		result, err := svc.Runner.RunSurvey(ctx, surveyID, personaIDs, sampleSize)
		if err != nil {
			return errors.Wrap(err, "run survey")
		}
		names, err := personaNames(ctx, svc.Store.ListPersonas)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, noteStyle.Render(result.Message+" "+result.RunID))
		RenderResults(out, result.Results, names)
		if len(result.MissingPersonaIDs) > 0 {
			_, _ = fmt.Fprintln(out, noteStyle.Render(fmt.Sprintf("personas not found: %v", result.MissingPersonaIDs)))
		}
		return nil
	},
}

var Results = &cobra.Command{
	Use:     "results",
	GroupID: "survey",
	Short:   "Show survey results",
	Long:    "Prints the stored results of every run of a survey",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		surveyID, _ := cmd.Flags().GetInt64("survey")

		ctx := cmd.Context()
		svc, _, err := services.Open(ctx, services.Logger())
		if err != nil {
			return err
		}
		defer func() {
			_ = svc.Close()
		}()

		results, err := svc.Store.ListResults(ctx, surveyID)
		if err != nil {
			return errors.Wrap(err, "list results")
		}
		names, err := personaNames(ctx, svc.Store.ListPersonas)
		if err != nil {
			return err
		}
		RenderResults(cmd.OutOrStdout(), results, names)
		return nil
	},
}
