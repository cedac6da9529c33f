// Package interests turns free text into stored preferences: the text goes to
// the inference collaborator and its payload is normalized, validated and
// recorded only when every rule passes.
package interests

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/ai"
	"github.com/spigell/interest-filter/internal/ai/prompts"
	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/logger"
	"github.com/spigell/interest-filter/internal/validation"
)

// Recorder stores validated inference results.
type Recorder interface {
	RecordInference(userID, text string, result domain.InferenceResult, needsConfirmation bool) (*domain.UserInferredPrefs, error)
}

// Options tune a single inference call.
type Options struct {
	// Radius is an optional search radius passed to the prompt as a constraint.
	Radius *float64
	// LocationHint is free text such as a city name.
	LocationHint string
	// Prompt selects the prompt builder; empty means prompts.Default.
	Prompt string
	// Validation overrides the service validator bounds for this call.
	Validation *validation.Config
}

// Outcome is the recorded inference and whether the user should confirm it.
type Outcome struct {
	Record            *domain.UserInferredPrefs
	NeedsConfirmation bool
}

type Service struct {
	inferrer  ai.Inferrer
	store     Recorder
	validator *validation.Validator
	logger    *zap.Logger
}

func NewService(inferrer ai.Inferrer, store Recorder, validator *validation.Validator, log *zap.Logger) *Service {
	return &Service{
		inferrer:  inferrer,
		store:     store,
		validator: validator,
		logger:    logger.WithFields(log),
	}
}

// InferPreferences infers tags for text and records them for userID. Nothing is
// stored when any step fails.
func (s *Service) InferPreferences(ctx context.Context, userID, text string, opts Options) (*Outcome, error) {
	if userID == "" {
		return nil, domain.InvalidArgument("inferPreferences", "userId is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.InvalidArgument("inferPreferences", "text must be non-empty")
	}
	if opts.Radius != nil && (math.IsNaN(*opts.Radius) || *opts.Radius < 0) {
		return nil, domain.InvalidArgument("inferPreferences", "radius must be a non-negative number, got %v", *opts.Radius)
	}

	validator := s.validator
	if opts.Validation != nil {
		v, err := validation.New(*opts.Validation)
		if err != nil {
			return nil, err
		}
		validator = v
	}
	if validator == nil {
		return nil, fmt.Errorf("inferPreferences: validator is not configured")
	}

	promptName := strings.TrimSpace(opts.Prompt)
	if promptName == "" {
		promptName = prompts.Default
	}
	build, err := prompts.Get(promptName)
	if err != nil {
		return nil, err
	}

	log := logger.WithInference(s.logger, userID, promptName)

	bounds := validator.Config()
	prompt, err := build(ai.PromptContext{
		Text:         text,
		AllowedTags:  domain.AllowedTags(),
		Radius:       opts.Radius,
		LocationHint: opts.LocationHint,
		MinTags:      bounds.MinTags,
		MaxTags:      bounds.MaxTags,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := s.inferrer.Infer(ctx, prompt)
	if err != nil {
		log.Error("tag inference failed", zap.Error(err))
		return nil, fmt.Errorf("infer tags: %w", err)
	}

	result, err := validation.Normalize(raw)
	if err != nil {
		log.Warn("inference payload rejected", zap.Error(err))
		return nil, err
	}

	needsConfirmation, err := validator.Validate(result)
	if err != nil {
		log.Warn("inference result failed validation",
			zap.Strings("tags", tagStrings(result.Tags)),
			zap.Error(err),
		)
		return nil, err
	}

	record, err := s.store.RecordInference(userID, text, *result, needsConfirmation)
	if err != nil {
		return nil, fmt.Errorf("record inference: %w", err)
	}

	log.Info("preferences inferred",
		zap.Strings("tags", tagStrings(record.Tags)),
		zap.Strings("exclusions", tagStrings(record.Exclusions)),
		zap.Float64("confidence", record.Confidence),
		zap.Bool("needs_confirmation", needsConfirmation),
	)
	if len(record.Warnings) > 0 {
		log.Debug("inference warnings", zap.Strings("warnings", record.Warnings))
	}

	return &Outcome{Record: record, NeedsConfirmation: needsConfirmation}, nil
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}
