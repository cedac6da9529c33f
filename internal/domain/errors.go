package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedResponse      = errors.New("malformed response")
	ErrWhitelistViolation     = errors.New("whitelist violation")
	ErrTagCountViolation      = errors.New("tag-count violation")
	ErrContradictionViolation = errors.New("contradiction violation")
	ErrConfidenceOutOfRange   = errors.New("confidence violation")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNoPreferencesSet       = errors.New("no preferences set")
)

// WhitelistError names the values found outside the vocabulary.
type WhitelistError struct {
	Values []string
}

func (e *WhitelistError) Error() string {
	return fmt.Sprintf("%s: found non-allowed tags: %s", ErrWhitelistViolation, strings.Join(e.Values, ", "))
}

func (e *WhitelistError) Unwrap() error { return ErrWhitelistViolation }

// TagCountError reports the configured bounds and the actual tag count.
type TagCountError struct {
	Min   int
	Max   int
	Count int
}

func (e *TagCountError) Error() string {
	return fmt.Sprintf("%s: expected between %d and %d tags, got %d", ErrTagCountViolation, e.Min, e.Max, e.Count)
}

func (e *TagCountError) Unwrap() error { return ErrTagCountViolation }

// ContradictionError lists every conflicting pair found in one tag set.
type ContradictionError struct {
	Pairs []ContradictionPair
}

func (e *ContradictionError) Error() string {
	conflicts := make([]string, 0, len(e.Pairs))
	for _, p := range e.Pairs {
		conflicts = append(conflicts, p.String())
	}
	return fmt.Sprintf("%s: conflicting tags detected: %s", ErrContradictionViolation, strings.Join(conflicts, "; "))
}

func (e *ContradictionError) Unwrap() error { return ErrContradictionViolation }

// ConfidenceError carries a confidence value outside [0,1].
type ConfidenceError struct {
	Confidence float64
}

func (e *ConfidenceError) Error() string {
	return fmt.Sprintf("%s: expected value in [0,1], got %v", ErrConfidenceOutOfRange, e.Confidence)
}

func (e *ConfidenceError) Unwrap() error { return ErrConfidenceOutOfRange }

// InvalidArgument builds an ErrInvalidArgument error for the named operation.
func InvalidArgument(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}
