package survey

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"github.com/tidwall/gjson"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/models"
)

const (
	maxRationaleLength = 1000
	defaultConfidence  = 0.5
)

// Sample is one persona preference judgment.
type Sample struct {
	Preference models.Variant
	Rationale  string
	Confidence float64
	// RawOutput holds the unparsed model output when raw output retention is enabled.
	RawOutput null.String
}

// FallbackSample stands in for a draw whose every attempt failed.
func FallbackSample() Sample {
	return Sample{
		Preference: models.VariantA,
		Rationale:  "Fallback due to error",
		Confidence: defaultConfidence,
		RawOutput:  null.String{},
	}
}

// GenerateParams are the inputs of a single generation call.
type GenerateParams struct {
	Persona         models.Persona
	QuestionText    string
	VariantA        string
	VariantB        string
	Model           string
	Temperature     float64
	EnableRawOutput bool
}

// Generator asks the model to answer as a persona.
type Generator struct {
	completer ai.Completer
	metrics   *Metrics
}

func NewGenerator(completer ai.Completer, metrics *Metrics) *Generator {
	return &Generator{
		completer: completer,
		metrics:   metrics,
	}
}

// Generate produces one sample. Completion errors are returned as is; malformed output is never an error.
func (g *Generator) Generate(ctx context.Context, params GenerateParams) (Sample, error) {
	start := time.Now()
	content, err := g.completer.Complete(ctx, ai.CompletionRequest{
		Model:        params.Model,
		Temperature:  params.Temperature,
		SystemPrompt: systemPrompt(params.Persona),
		UserPrompt:   userPrompt(params.QuestionText, params.VariantA, params.VariantB),
		JSONOutput:   true,
	})
	g.metrics.observeGeneration(start)
	if err != nil {
		return Sample{}, err //nolint:wrapcheck // retries inspect the provider error
	}

	sample := ParseSample(content)
	if params.EnableRawOutput {
		sample.RawOutput = null.StringFrom(content)
	}
	return sample, nil
}

// PersonaText describes the persona with one line per non-empty attribute.
func PersonaText(persona models.Persona) string {
	lines := []string{"Name: " + persona.Name}
	if persona.Role.ValueOrZero() != "" {
		lines = append(lines, "Role: "+persona.Role.String)
	}
	if persona.Description.ValueOrZero() != "" {
		lines = append(lines, "Description: "+persona.Description.String)
	}
	if len(persona.Traits) > 0 {
		if traits, err := json.Marshal(persona.Traits); err == nil {
			lines = append(lines, "Traits (JSON): "+string(traits))
		}
	}
	return strings.Join(lines, "\n")
}

func systemPrompt(persona models.Persona) string {
	return "You are a single synthetic consumer persona. Always respond as this persona. Stay concise. Persona:\n" +
		PersonaText(persona)
}

func userPrompt(questionText, variantA, variantB string) string {
	return strings.Join([]string{
		"You will be given a product description and two feature variants (A and B).",
		"Task: Choose which variant you prefer (A or B) and provide a ONE-SENTENCE rationale.",
		`Output STRICT JSON only, with these keys: preference ("A" or "B"), rationale (string), confidence (number 0..1).`,
		"",
		"Product / Question:\n" + questionText,
		"Variant A:\n" + variantA,
		"Variant B:\n" + variantB,
		"",
		"Rules:",
		"- Output JSON only; no extra words.",
		`- preference must be exactly "A" or "B".`,
		"- confidence is a number between 0 and 1.",
	}, "\n")
}

// ParseSample reads a sample from model output.
//
// The whole content is tried as JSON first, then the last top-level object in it. When neither parses, every field
// takes its default: preference A, empty rationale and confidence 0.5.
func ParseSample(content string) Sample {
	object := extractObject(content)

	preference := models.VariantA
	if strings.EqualFold(strings.TrimSpace(object.Get("preference").String()), string(models.VariantB)) {
		preference = models.VariantB
	}

	return Sample{
		Preference: preference,
		Rationale:  truncateRunes(strings.TrimSpace(object.Get("rationale").String()), maxRationaleLength),
		Confidence: parseConfidence(object.Get("confidence")),
		RawOutput:  null.String{},
	}
}

func extractObject(content string) gjson.Result {
	if gjson.Valid(content) {
		return gjson.Parse(content)
	}
	// Closing braces are tried from the right and opening braces from the left, so the first valid candidate is
	// the outermost object that ends last.
	for end := strings.LastIndexByte(content, '}'); end > 0; end = strings.LastIndexByte(content[:end], '}') {
		for start := strings.IndexByte(content, '{'); start >= 0 && start < end; {
			candidate := content[start : end+1]
			if gjson.Valid(candidate) {
				return gjson.Parse(candidate)
			}
			next := strings.IndexByte(content[start+1:end], '{')
			if next < 0 {
				break
			}
			start += next + 1
		}
	}
	return gjson.Result{}
}

func parseConfidence(value gjson.Result) float64 {
	var confidence float64
	switch value.Type {
	case gjson.Number:
		confidence = value.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return defaultConfidence
		}
		confidence = parsed
	default:
		return defaultConfidence
	}
	if math.IsNaN(confidence) {
		return defaultConfidence
	}
	return min(max(confidence, 0), 1)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
