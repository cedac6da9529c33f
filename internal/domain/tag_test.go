package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []string
		expect []string
	}{
		{name: "empty", input: nil, expect: []string{}},
		{name: "no duplicates", input: []string{"a", "b"}, expect: []string{"a", "b"}},
		{name: "repeated", input: []string{"a", "b", "a"}, expect: []string{"a", "b"}},
		{name: "all same", input: []string{"c", "c", "c"}, expect: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.expect, Dedupe(tt.input)); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisallowedAcrossLists(t *testing.T) {
	got := Disallowed(
		[]string{"quiet_spaces", "rooftop_bars", "nature_walks"},
		[]string{"karaoke", "rooftop_bars", "live_music"},
	)

	if diff := cmp.Diff([]string{"rooftop_bars", "karaoke"}, got); diff != "" {
		t.Fatalf("unexpected disallowed values (-want +got):\n%s", diff)
	}

	if got := Disallowed([]Tag{QuietSpaces, LiveMusic}); len(got) != 0 {
		t.Fatalf("expected no disallowed tags, got %v", got)
	}
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags([]string{"quiet_spaces", "coffee_nooks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]Tag{QuietSpaces, CoffeeNooks}, tags); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}

	_, err = ParseTags([]string{"quiet_spaces", "beach_bars"})
	if !errors.Is(err, ErrWhitelistViolation) {
		t.Fatalf("expected whitelist violation, got %v", err)
	}

	var wl *WhitelistError
	if !errors.As(err, &wl) || len(wl.Values) != 1 || wl.Values[0] != "beach_bars" {
		t.Fatalf("expected offending value beach_bars, got %v", err)
	}
}

func TestVocabularyIsClosed(t *testing.T) {
	names := TagNames()
	if len(names) != 13 {
		t.Fatalf("expected 13 tags, got %d", len(names))
	}

	for _, name := range names {
		if !IsAllowed(name) {
			t.Fatalf("expected %q to be allowed", name)
		}
	}

	if IsAllowed("Quiet_Spaces") {
		t.Fatalf("matching must be exact")
	}

	for _, pair := range ContradictionPairs() {
		if !IsAllowed(string(pair[0])) || !IsAllowed(string(pair[1])) {
			t.Fatalf("contradiction pair %s uses unknown tags", pair)
		}
	}
}

func TestSamplePlacesAreCopies(t *testing.T) {
	first := SamplePlaces()
	first[0].Tags[0] = LiveMusic

	second := SamplePlaces()
	if second[0].Tags[0] != WaterfrontViews {
		t.Fatalf("sample places must not share tag slices")
	}
}

func TestErrorMessages(t *testing.T) {
	err := &ContradictionError{Pairs: []ContradictionPair{{QuietSpaces, LivelyNightlife}, {QuietSpaces, LiveMusic}}}
	want := "contradiction violation: conflicting tags detected: quiet_spaces vs lively_nightlife; quiet_spaces vs live_music"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	count := &TagCountError{Min: 3, Max: 7, Count: 2}
	if count.Error() != "tag-count violation: expected between 3 and 7 tags, got 2" {
		t.Fatalf("unexpected message: %q", count.Error())
	}

	invalid := InvalidArgument("setPreferences", "tags must be non-empty")
	if !errors.Is(invalid, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument kind")
	}
}
