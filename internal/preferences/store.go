package preferences

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/interest-filter/internal/domain"
)

// Store keeps exactly one active preference record per user, plus the
// inference record behind it when the preferences were inferred.
// Each write fully replaces the previous record; nothing is merged.
type Store struct {
	mu       sync.RWMutex
	active   map[string]*domain.UserPreferences
	inferred map[string]*domain.UserInferredPrefs

	now   func() time.Time
	newID func() uuid.UUID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		active:   make(map[string]*domain.UserPreferences),
		inferred: make(map[string]*domain.UserInferredPrefs),
		now:      time.Now,
		newID:    uuid.New,
	}
}

// SetPreferences stores manually chosen tags as the active preferences.
// A previously recorded inference stays in place, but it no longer drives the active tags.
func (s *Store) SetPreferences(userID string, tags []domain.Tag) error {
	if userID == "" {
		return domain.InvalidArgument("setPreferences", "userId is required")
	}
	if len(tags) == 0 {
		return domain.InvalidArgument("setPreferences", "tags must be non-empty")
	}
	if invalid := domain.Disallowed(tags); len(invalid) > 0 {
		return &domain.WhitelistError{Values: invalid}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.active[userID] = &domain.UserPreferences{
		UserID: userID,
		Tags:   domain.Dedupe(tags),
		Source: domain.SourceManual,
	}

	return nil
}

// RecordInference stores an already normalized and validated inference result
// together with the text it came from, and makes its tags the active preferences.
func (s *Store) RecordInference(userID, text string, result domain.InferenceResult, needsConfirmation bool) (*domain.UserInferredPrefs, error) {
	if userID == "" {
		return nil, domain.InvalidArgument("recordInference", "userId is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.InvalidArgument("recordInference", "text must be non-empty")
	}

	tags := domain.Dedupe(result.Tags)

	record := &domain.UserInferredPrefs{
		ID:                s.newID(),
		UserID:            userID,
		Tags:              tags,
		Exclusions:        domain.Dedupe(result.Exclusions),
		Confidence:        result.Confidence,
		Rationale:         result.Rationale,
		Warnings:          slices.Clone(result.Warnings),
		LastPrompt:        text,
		NeedsConfirmation: needsConfirmation,
		RecordedAt:        s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inferred[userID] = record
	s.active[userID] = &domain.UserPreferences{
		UserID: userID,
		Tags:   slices.Clone(tags),
		Source: domain.SourceInferred,
	}

	return copyInference(record), nil
}

// ClearPreferences removes both records of the user. Unknown users are not an error.
func (s *Store) ClearPreferences(userID string) error {
	if userID == "" {
		return domain.InvalidArgument("clearPreferences", "userId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, userID)
	delete(s.inferred, userID)

	return nil
}

// Preferences returns a copy of the active preferences of the user.
func (s *Store) Preferences(userID string) (*domain.UserPreferences, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.active[userID]
	if !ok {
		return nil, false
	}

	return &domain.UserPreferences{
		UserID: prefs.UserID,
		Tags:   slices.Clone(prefs.Tags),
		Source: prefs.Source,
	}, true
}

// Inference returns a copy of the latest inference record of the user.
func (s *Store) Inference(userID string) (*domain.UserInferredPrefs, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.inferred[userID]
	if !ok {
		return nil, false
	}

	return copyInference(record), true
}

func copyInference(r *domain.UserInferredPrefs) *domain.UserInferredPrefs {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	c.Exclusions = slices.Clone(r.Exclusions)
	c.Warnings = slices.Clone(r.Warnings)
	return &c
}
