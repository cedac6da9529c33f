package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/ai"
	"github.com/spigell/interest-filter/internal/ai/gemini"
	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/interests"
	"github.com/spigell/interest-filter/internal/matching"
	"github.com/spigell/interest-filter/internal/places"
	"github.com/spigell/interest-filter/internal/preferences"
	"github.com/spigell/interest-filter/internal/validation"
)

const (
	PromptAccept = "Accept the inferred tags"
	PromptEdit   = "Enter tags manually"
	PromptReject = "Reject"
)

var errRejected = errors.New("inferred preferences rejected")

var confirmPrompt = promptui.Select{
	Label: "Confidence is low. Proceed?",
	Items: []string{PromptAccept, PromptEdit, PromptReject},
}

var inferCmd = &cobra.Command{
	Use:   "infer [text]",
	Short: "Infer interest tags from free text and rank places by them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		infer(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().StringP("user", "u", "cli", "user id to store the preferences under")
	inferCmd.Flags().StringP("prompt", "p", "", "prompt builder: baseline, fewshot or contradictions")
	inferCmd.Flags().Float64P("radius", "r", 0, "search radius passed to the model as a constraint")
	inferCmd.Flags().StringP("location", "l", "", "location hint passed to the model as a constraint")
	inferCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation when confidence is low")
	inferCmd.Flags().StringArray("tag-place", nil, "extra place tag as <place-id>=<tag>, may be repeated")

	viper.BindPFlag("ai.prompt", inferCmd.Flags().Lookup("prompt"))
}

func infer(cmd *cobra.Command, text string) {
	ctx := context.Background()
	logger, config := setup()

	userID, _ := cmd.Flags().GetString("user")
	location, _ := cmd.Flags().GetString("location")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	extra, _ := cmd.Flags().GetStringArray("tag-place")

	opts := interests.Options{
		LocationHint: location,
		Prompt:       config.AI.Prompt,
	}
	if cmd.Flags().Changed("radius") {
		radius, _ := cmd.Flags().GetFloat64("radius")
		opts.Radius = &radius
	}

	inferrer, err := newInferrer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building tag inferrer", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file in the configuration file"),
		)
	}

	validator, err := validation.New(config.Validation)
	if err != nil {
		logger.Fatal("building validator", zap.Error(err))
	}
	for _, status := range validator.Describe() {
		logger.Debug("validation check", zap.String("check", status.Name), zap.Any("details", status.Details))
	}

	store := preferences.New()
	service := interests.NewService(inferrer, store, validator, logger)

	outcome, err := service.InferPreferences(ctx, userID, text, opts)
	if err != nil {
		logger.Fatal("inferring preferences", zap.Error(err))
	}

	record := outcome.Record
	logger.Info("inferred tags",
		zap.Any("tags", record.Tags),
		zap.Any("exclusions", record.Exclusions),
		zap.Float64("confidence", record.Confidence),
		zap.String("rationale", record.Rationale),
	)
	for _, warning := range record.Warnings {
		logger.Warn("model warning", zap.String("warning", warning))
	}

	if outcome.NeedsConfirmation && !autoApprove {
		if err := confirm(store, userID, logger); err != nil {
			if errors.Is(err, errRejected) {
				logger.Info("exiting", zap.String("reason", "inferred preferences rejected"))
				return
			}
			logger.Fatal("confirming preferences", zap.Error(err))
		}
	}

	seed := loadPlaces(config, logger)
	index := places.New(seed)
	if err := applyPlaceTags(index, extra); err != nil {
		logger.Fatal("tagging places", zap.Error(err))
	}

	rank(logger, matching.New(store, index), userID, seed)
}

func confirm(store *preferences.Store, userID string, logger *zap.Logger) error {
	_, action, err := confirmPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptAccept:
		return nil
	case PromptEdit:
		tagsPrompt := promptui.Prompt{
			Label: "Tags (comma separated)",
			Validate: func(input string) error {
				values := splitTags(input)
				if len(values) == 0 {
					return errors.New("at least one tag is required")
				}
				_, err := domain.ParseTags(values)
				return err
			},
		}

		input, err := tagsPrompt.Run()
		if err != nil {
			return err
		}

		tags, err := domain.ParseTags(splitTags(input))
		if err != nil {
			return err
		}
		if err := store.SetPreferences(userID, tags); err != nil {
			return err
		}

		logger.Info("preferences replaced manually", zap.Any("tags", tags))
		return nil
	case PromptReject:
		if err := store.ClearPreferences(userID); err != nil {
			return err
		}
		return errRejected
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func splitTags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToLower(f))
	}
	return out
}

func newInferrer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Inferrer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	generator, err := gemini.NewGenerator(ctx, cfg.Gemini, logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	return gemini.NewTagInferrer(generator, logger, cfg.Gemini.MaxLogLength), nil
}
