package interests

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/preferences"
	"github.com/spigell/interest-filter/internal/validation"
)

type stubInferrer struct {
	payload any
	err     error
	calls   int
	prompt  string
}

func (s *stubInferrer) Infer(_ context.Context, prompt string) (any, error) {
	s.calls++
	s.prompt = prompt
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func newService(t *testing.T, inferrer *stubInferrer, log *zap.Logger) (*Service, *preferences.Store) {
	t.Helper()
	validator, err := validation.New(validation.DefaultConfig())
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	store := preferences.New()
	return NewService(inferrer, store, validator, log), store
}

func TestInferPreferences(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	inferrer := &stubInferrer{payload: decodeJSON(t, `{
		"tags": ["quiet_spaces", "waterfront_views", "sunset_spots", "quiet_spaces"],
		"exclusions": ["lively_nightlife"],
		"confidence": 0.84,
		"rationale": "Quiet waterfront at sunset.",
		"warnings": []
	}`)}
	svc, store := newService(t, inferrer, zap.New(core))

	radius := 10.0
	outcome, err := svc.InferPreferences(context.Background(), "u1", "reading by the water at sunset, not crowded", Options{
		Radius:       &radius,
		LocationHint: "Seattle",
		Prompt:       "fewshot",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.NeedsConfirmation {
		t.Fatalf("0.84 is above the advisory threshold")
	}
	if diff := cmp.Diff([]domain.Tag{domain.QuietSpaces, domain.WaterfrontViews, domain.SunsetSpots}, outcome.Record.Tags); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}

	prefs, ok := store.Preferences("u1")
	if !ok || prefs.Source != domain.SourceInferred {
		t.Fatalf("expected inferred preferences to be active, got %+v", prefs)
	}
	record, ok := store.Inference("u1")
	if !ok || record.LastPrompt != "reading by the water at sunset, not crowded" {
		t.Fatalf("expected the source text to be recorded, got %+v", record)
	}

	if !strings.Contains(inferrer.prompt, `{"radius":10,"locationHint":"Seattle"}`) {
		t.Fatalf("expected constraints in prompt, got:\n%s", inferrer.prompt)
	}
	if !strings.Contains(inferrer.prompt, "Examples (follow exactly)") {
		t.Fatalf("expected the few-shot prompt to be used")
	}

	entries := observed.FilterMessage("preferences inferred").All()
	if len(entries) != 1 {
		t.Fatalf("expected one info entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["user_id"] != "u1" || ctx["prompt"] != "fewshot" || ctx["needs_confirmation"] != false {
		t.Fatalf("unexpected log fields: %v", ctx)
	}
}

func TestInferPreferencesLowConfidence(t *testing.T) {
	inferrer := &stubInferrer{payload: decodeJSON(t, `{"tags":["nature_walks","historic_charms","instagram_worthy"],"confidence":0.5}`)}
	svc, store := newService(t, inferrer, nil)

	outcome, err := svc.InferPreferences(context.Background(), "u1", "old bridges maybe", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.NeedsConfirmation || !outcome.Record.NeedsConfirmation {
		t.Fatalf("expected confirmation to be requested")
	}
	if _, ok := store.Preferences("u1"); !ok {
		t.Fatalf("low confidence results are still stored")
	}
}

func TestInferPreferencesStoresNothingOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		err     error
		kind    error
	}{
		{name: "malformed", payload: `{"tags":"quiet_spaces","confidence":0.9}`, kind: domain.ErrMalformedResponse},
		{name: "missing confidence", payload: `{"tags":["quiet_spaces","coffee_nooks","nature_walks"]}`, kind: domain.ErrMalformedResponse},
		{name: "unknown tag", payload: `{"tags":["quiet_spaces","coffee_nooks","rooftop_bars"],"confidence":0.9}`, kind: domain.ErrWhitelistViolation},
		{name: "too few tags", payload: `{"tags":["quiet_spaces"],"confidence":0.9}`, kind: domain.ErrTagCountViolation},
		{name: "contradiction", payload: `{"tags":["quiet_spaces","live_music","coffee_nooks"],"confidence":0.9}`, kind: domain.ErrContradictionViolation},
		{name: "confidence above one", payload: `{"tags":["quiet_spaces","coffee_nooks","nature_walks"],"confidence":1.2}`, kind: domain.ErrConfidenceOutOfRange},
		{name: "collaborator error", err: errors.New("upstream unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inferrer := &stubInferrer{err: tt.err}
			if tt.payload != "" {
				inferrer.payload = decodeJSON(t, tt.payload)
			}
			svc, store := newService(t, inferrer, zap.NewNop())

			_, err := svc.InferPreferences(context.Background(), "u1", "anything", Options{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected collaborator error to be wrapped, got %v", err)
			}

			if _, ok := store.Preferences("u1"); ok {
				t.Fatalf("failed inference must not store preferences")
			}
			if _, ok := store.Inference("u1"); ok {
				t.Fatalf("failed inference must not store an inference record")
			}
		})
	}
}

func TestInferPreferencesRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	negative := -1.0

	tests := []struct {
		name   string
		userID string
		text   string
		opts   Options
	}{
		{name: "empty user", userID: "", text: "quiet"},
		{name: "blank text", userID: "u1", text: "   "},
		{name: "negative radius", userID: "u1", text: "quiet", opts: Options{Radius: &negative}},
		{name: "unknown prompt", userID: "u1", text: "quiet", opts: Options{Prompt: "haiku"}},
		{name: "bad bounds", userID: "u1", text: "quiet", opts: Options{Validation: &validation.Config{MinTags: 5, MaxTags: 2, AdvisoryConfidence: 0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inferrer := &stubInferrer{}
			svc, _ := newService(t, inferrer, nil)

			if _, err := svc.InferPreferences(context.Background(), tt.userID, tt.text, tt.opts); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if inferrer.calls != 0 {
				t.Fatalf("collaborator must not be called for invalid input")
			}
		})
	}
}

func TestInferPreferencesValidationOverride(t *testing.T) {
	inferrer := &stubInferrer{payload: decodeJSON(t, `{"tags":["coffee_nooks"],"confidence":0.9}`)}
	svc, _ := newService(t, inferrer, nil)

	outcome, err := svc.InferPreferences(context.Background(), "u1", "coffee", Options{
		Validation: &validation.Config{MinTags: 1, MaxTags: 2, AdvisoryConfidence: 0.95},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.NeedsConfirmation {
		t.Fatalf("expected the overridden threshold to apply")
	}
	if !strings.Contains(inferrer.prompt, "(1-2 items)") {
		t.Fatalf("expected overridden bounds in prompt")
	}
}
