package validation

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/interest-filter/internal/domain"
)

// Payload is the shape the inference collaborator is asked to produce.
// Values arriving in it are untrusted until Validate accepts them.
type Payload struct {
	Tags       []string `mapstructure:"tags" json:"tags,omitempty" jsonschema:"description=Subset of the allowed tags describing what the user wants"`
	Exclusions []string `mapstructure:"exclusions" json:"exclusions,omitempty" jsonschema:"description=Subset of the allowed tags the user wants to avoid"`
	Confidence *float64 `mapstructure:"confidence" json:"confidence" jsonschema:"minimum=0,maximum=1,description=Confidence of the mapping"`
	Rationale  string   `mapstructure:"rationale" json:"rationale,omitempty" jsonschema:"description=One short sentence explaining the choice"`
	Warnings   []string `mapstructure:"warnings" json:"warnings,omitempty" jsonschema:"description=Optional notes such as ambiguity"`
}

// Normalize narrows a raw untyped payload into an InferenceResult.
// Missing lists default to empty and a missing rationale to "". Confidence is
// required and must be numeric. Tags and exclusions are deduplicated
// independently, preserving first-occurrence order.
func Normalize(raw any) (*domain.InferenceResult, error) {
	var payload Payload

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &payload,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create payload decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	if payload.Confidence == nil {
		return nil, fmt.Errorf("%w: 'confidence' is required and must be a number", domain.ErrMalformedResponse)
	}

	warnings := payload.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &domain.InferenceResult{
		Tags:       toTags(domain.Dedupe(payload.Tags)),
		Exclusions: toTags(domain.Dedupe(payload.Exclusions)),
		Confidence: *payload.Confidence,
		Rationale:  payload.Rationale,
		Warnings:   warnings,
	}, nil
}

func toTags(values []string) []domain.Tag {
	tags := make([]domain.Tag, 0, len(values))
	for _, v := range values {
		tags = append(tags, domain.Tag(v))
	}
	return tags
}
