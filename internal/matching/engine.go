package matching

import (
	"sort"

	"github.com/spigell/interest-filter/internal/domain"
)

// PreferenceReader exposes the stored records the engine scores against.
type PreferenceReader interface {
	Preferences(userID string) (*domain.UserPreferences, bool)
	Inference(userID string) (*domain.UserInferredPrefs, bool)
}

// TagLookup resolves the current tag set of a place.
type TagLookup interface {
	Lookup(placeID string) ([]domain.Tag, bool)
}

// Engine ranks places by overlap with a user's active preferences.
type Engine struct {
	prefs PreferenceReader
	tags  TagLookup
}

// New returns an engine reading preferences and place tags from the given sources.
// A nil TagLookup makes the engine score places by their own Tags only.
func New(prefs PreferenceReader, tags TagLookup) *Engine {
	return &Engine{prefs: prefs, tags: tags}
}

// Score counts active tags present on each place. Any exclusion tag present on
// a place zeroes it, zero scores are dropped and the rest is sorted by
// descending score. Equal scores keep their input order.
func (e *Engine) Score(userID string, places []domain.Place) ([]domain.Match, error) {
	prefs, ok := e.prefs.Preferences(userID)
	if !ok {
		return nil, domain.ErrNoPreferencesSet
	}

	var exclusions []domain.Tag
	if inferred, ok := e.prefs.Inference(userID); ok {
		exclusions = inferred.Exclusions
	}

	matches := make([]domain.Match, 0, len(places))
	for _, place := range places {
		score := scorePlace(prefs.Tags, exclusions, e.placeTags(place))
		if score == 0 {
			continue
		}
		matches = append(matches, domain.Match{Place: place, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

func (e *Engine) placeTags(place domain.Place) []domain.Tag {
	if e.tags != nil {
		if tags, ok := e.tags.Lookup(place.ID); ok {
			return tags
		}
	}
	return place.Tags
}

func scorePlace(active, exclusions, placeTags []domain.Tag) int {
	set := make(map[domain.Tag]struct{}, len(placeTags))
	for _, t := range placeTags {
		set[t] = struct{}{}
	}

	for _, t := range exclusions {
		if _, ok := set[t]; ok {
			return 0
		}
	}

	score := 0
	for _, t := range active {
		if _, ok := set[t]; ok {
			score++
		}
	}
	return score
}
