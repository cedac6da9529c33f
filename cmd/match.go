package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/matching"
	"github.com/spigell/interest-filter/internal/places"
	"github.com/spigell/interest-filter/internal/preferences"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank places against manually chosen tags",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("user", "u", "cli", "user id to store the preferences under")
	matchCmd.Flags().StringSliceP("tags", "t", nil, "comma separated interest tags")
	matchCmd.Flags().StringArray("tag-place", nil, "extra place tag as <place-id>=<tag>, may be repeated")

	matchCmd.MarkFlagRequired("tags")
}

func match(cmd *cobra.Command) {
	logger, config := setup()

	userID, _ := cmd.Flags().GetString("user")
	rawTags, _ := cmd.Flags().GetStringSlice("tags")
	extra, _ := cmd.Flags().GetStringArray("tag-place")

	tags, err := domain.ParseTags(rawTags)
	if err != nil {
		logger.Fatal("parsing tags", zap.Error(err), zap.Strings("allowed", domain.TagNames()))
	}

	store := preferences.New()
	if err := store.SetPreferences(userID, tags); err != nil {
		logger.Fatal("setting preferences", zap.Error(err))
	}

	seed := loadPlaces(config, logger)
	index := places.New(seed)
	if err := applyPlaceTags(index, extra); err != nil {
		logger.Fatal("tagging places", zap.Error(err))
	}

	rank(logger, matching.New(store, index), userID, seed)
}

// applyPlaceTags parses <place-id>=<tag> pairs and adds them to the index.
func applyPlaceTags(index *places.Index, pairs []string) error {
	for _, pair := range pairs {
		placeID, tag, ok := strings.Cut(pair, "=")
		if !ok {
			return domain.InvalidArgument("tag-place", "expected <place-id>=<tag>, got %q", pair)
		}
		if err := index.TagPlace(strings.TrimSpace(placeID), domain.Tag(strings.TrimSpace(tag))); err != nil {
			return fmt.Errorf("tag place %q: %w", placeID, err)
		}
	}
	return nil
}

func rank(logger *zap.Logger, engine *matching.Engine, userID string, candidates []domain.Place) {
	matches, err := engine.Score(userID, candidates)
	if err != nil {
		logger.Fatal("scoring places", zap.Error(err))
	}

	if len(matches) == 0 {
		logger.Info("exiting", zap.String("reason", "no place matches the preferences"))
		return
	}

	logger.Info("ranked places", zap.Int("count", len(matches)))
	for n, m := range matches {
		logger.Info(fmt.Sprintf("#%d %s", n+1, m.Place.Name),
			zap.String("place_id", m.Place.ID),
			zap.Int("score", m.Score),
		)
	}
}
