package domain

import (
	"fmt"
	"slices"
)

// Tag is one value of the closed interest vocabulary.
type Tag string

const (
	QuietSpaces     Tag = "quiet_spaces"
	WaterfrontViews Tag = "waterfront_views"
	NatureWalks     Tag = "nature_walks"
	SunsetSpots     Tag = "sunset_spots"
	NotCrowded      Tag = "not_crowded"
	ShortDrive      Tag = "short_drive"
	InstagramWorthy Tag = "instagram_worthy"
	LivelyNightlife Tag = "lively_nightlife"
	LiveMusic       Tag = "live_music"
	HistoricCharms  Tag = "historic_charms"
	FamilyFriendly  Tag = "family_friendly"
	CoffeeNooks     Tag = "coffee_nooks"
	ScenicOverlook  Tag = "scenic_overlook"
)

// AllowedTag pairs a vocabulary entry with the meaning shown to the inference collaborator.
type AllowedTag struct {
	Tag         Tag    `json:"tag" yaml:"tag"`
	Description string `json:"description" yaml:"description"`
}

// ContradictionPair is an unordered pair of tags that must not appear together.
type ContradictionPair [2]Tag

func (p ContradictionPair) String() string {
	return fmt.Sprintf("%s vs %s", p[0], p[1])
}

// Changing this list is a breaking change for stored preferences.
var allowedTags = []AllowedTag{
	{Tag: QuietSpaces, Description: "calm, low-noise places for relaxing"},
	{Tag: WaterfrontViews, Description: "visible bodies of water nearby"},
	{Tag: NatureWalks, Description: "walkable paths/trails in nature"},
	{Tag: SunsetSpots, Description: "good west-facing sunset views"},
	{Tag: NotCrowded, Description: "typically low foot traffic"},
	{Tag: ShortDrive, Description: "≈ within ~45 minutes by car"},
	{Tag: InstagramWorthy, Description: "notably photogenic scenes"},
	{Tag: LivelyNightlife, Description: "energetic evening venues/districts"},
	{Tag: LiveMusic, Description: "scheduled musical performances"},
	{Tag: HistoricCharms, Description: "notable historic structures/areas"},
	{Tag: FamilyFriendly, Description: "amenities suitable for families"},
	{Tag: CoffeeNooks, Description: "cafés suited to lingering/reading"},
	{Tag: ScenicOverlook, Description: "elevated viewpoint with vistas"},
}

var contradictionPairs = []ContradictionPair{
	{QuietSpaces, LivelyNightlife},
	{QuietSpaces, LiveMusic},
}

var allowedIndex = func() map[string]struct{} {
	index := make(map[string]struct{}, len(allowedTags))
	for _, t := range allowedTags {
		index[string(t.Tag)] = struct{}{}
	}
	return index
}()

// AllowedTags returns a copy of the vocabulary with descriptions.
func AllowedTags() []AllowedTag {
	return slices.Clone(allowedTags)
}

// TagNames returns the vocabulary values in declaration order.
func TagNames() []string {
	names := make([]string, 0, len(allowedTags))
	for _, t := range allowedTags {
		names = append(names, string(t.Tag))
	}
	return names
}

// ContradictionPairs returns a copy of the declared contradiction pairs.
func ContradictionPairs() []ContradictionPair {
	return slices.Clone(contradictionPairs)
}

// IsAllowed reports whether value belongs to the vocabulary.
func IsAllowed(value string) bool {
	_, ok := allowedIndex[value]
	return ok
}

// Disallowed returns every value outside the vocabulary across all lists.
// Each offending value is reported once, in first-occurrence order.
func Disallowed[T ~string](lists ...[]T) []string {
	var invalid []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, v := range list {
			s := string(v)
			if IsAllowed(s) {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			invalid = append(invalid, s)
		}
	}
	return invalid
}

// ParseTags converts raw strings into vocabulary tags.
func ParseTags(values []string) ([]Tag, error) {
	if invalid := Disallowed(values); len(invalid) > 0 {
		return nil, &WhitelistError{Values: invalid}
	}

	result := make([]Tag, 0, len(values))
	for _, v := range values {
		result = append(result, Tag(v))
	}
	return result, nil
}

// Dedupe removes repeated values while keeping the first occurrence order.
func Dedupe[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
