package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source tells where the active preferences came from.
type Source string

const (
	SourceManual   Source = "manual"
	SourceInferred Source = "inferred"
)

// InferenceResult is the normalized output of one inference attempt.
// Tags and Exclusions are deduplicated; they are not required to be disjoint.
type InferenceResult struct {
	Tags       []Tag    `json:"tags"`
	Exclusions []Tag    `json:"exclusions"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
	Warnings   []string `json:"warnings"`
}

// UserPreferences is the single active preference record of a user.
type UserPreferences struct {
	UserID string `json:"user_id"`
	Tags   []Tag  `json:"tags"`
	Source Source `json:"source"`
}

// UserInferredPrefs keeps the full inference outcome behind inferred preferences.
type UserInferredPrefs struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	Tags              []Tag     `json:"tags"`
	Exclusions        []Tag     `json:"exclusions"`
	Confidence        float64   `json:"confidence"`
	Rationale         string    `json:"rationale"`
	Warnings          []string  `json:"warnings"`
	LastPrompt        string    `json:"last_prompt"`
	NeedsConfirmation bool      `json:"needs_confirmation"`
	RecordedAt        time.Time `json:"recorded_at"`
}
