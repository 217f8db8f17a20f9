package types

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v2"

	"github.com/keeper-project/homepage-api/internal/validator"
)

//go:embed contest.schema.json
var contestSchemaJSON string

var ContestSchema = jsonschema.MustCompileString("contest.schema.json", contestSchemaJSON)

type ContestProblemYAML struct {
	MinScore *int64          `yaml:"min_score"`
	Decay    *int64          `yaml:"decay"`
	Title    string          `yaml:"title"     validate:"required"`
	Content  string          `yaml:"content"   validate:"required"`
	Flag     string          `yaml:"flag"      validate:"required,ctf_flag"`
	Category ProblemCategory `yaml:"category"  validate:"required"`
	Type     ProblemType     `yaml:"type"      validate:"required"`
	// Attachment path, relative to the contest file
	File  string `yaml:"file"`
	Score int64  `yaml:"score"     validate:"required,gt=0"`
	Open  bool   `yaml:"open"`
}

// Contest definition consumed by `keeperctl import`
type ContestYAML struct {
	Name        string               `yaml:"name"        validate:"required"`
	Description string               `yaml:"description"`
	Problems    []ContestProblemYAML `yaml:"problems"    validate:"dive"`
	Open        bool                 `yaml:"open"`
	Joinable    bool                 `yaml:"joinable"`
}

// yaml.v2 decodes mappings as map[any]any which the schema validator does not accept
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	default:
		return v
	}
}

func ParseContestYAML(ctx context.Context, content []byte) (*ContestYAML, error) {
	_, span := tracer.Start(ctx, "ParseContestYAML")
	defer span.End()

	span.SetAttributes(attribute.Int("content.length", len(content)))

	var raw any
	err := yaml.Unmarshal(content, &raw)
	if err != nil {
		span.SetStatus(codes.Error, "error unmarshalling contest yaml")
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("validating contest yaml against schema")
	err = ContestSchema.Validate(normalizeYAML(raw))
	if err != nil {
		span.SetStatus(codes.Error, "contest yaml was not schema compliant")
		span.RecordError(err)
		return nil, fmt.Errorf("contest yaml failed schema validation: %w", err)
	}

	var contest ContestYAML
	err = yaml.Unmarshal(content, &contest)
	if err != nil {
		span.SetStatus(codes.Error, "error unmarshalling contest yaml")
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("validating parsed contest yaml")
	v := validator.Create()
	err = v.Validate(contest)
	if err != nil {
		span.SetStatus(codes.Error, "error validating contest yaml")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("problems.count", len(contest.Problems)))
	span.SetStatus(codes.Ok, "parsed contest yaml")
	return &contest, nil
}
