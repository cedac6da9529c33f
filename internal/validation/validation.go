package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spigell/interest-filter/internal/domain"
)

const (
	DefaultMinTags            = 3
	DefaultMaxTags            = 7
	DefaultAdvisoryConfidence = 0.65
)

// Config holds the tunable bounds of the validator.
type Config struct {
	MinTags            int     `mapstructure:"min-tags"`
	MaxTags            int     `mapstructure:"max-tags"`
	AdvisoryConfidence float64 `mapstructure:"advisory-confidence"`
}

// DefaultConfig returns bounds [3,7] and an advisory threshold of 0.65.
func DefaultConfig() Config {
	return Config{
		MinTags:            DefaultMinTags,
		MaxTags:            DefaultMaxTags,
		AdvisoryConfidence: DefaultAdvisoryConfidence,
	}
}

// Validate checks that the bounds are usable.
func (c Config) Validate() error {
	if c.MinTags < 0 {
		return domain.InvalidArgument("validation config", "min-tags must not be negative, got %d", c.MinTags)
	}
	if c.MaxTags < c.MinTags {
		return domain.InvalidArgument("validation config", "max-tags (%d) is lower than min-tags (%d)", c.MaxTags, c.MinTags)
	}
	if math.IsNaN(c.AdvisoryConfidence) || c.AdvisoryConfidence < 0 || c.AdvisoryConfidence > 1 {
		return domain.InvalidArgument("validation config", "advisory-confidence must be within [0,1], got %v", c.AdvisoryConfidence)
	}
	return nil
}

// Check is a single business rule applied to a normalized inference result.
type Check interface {
	Name() string
	Apply(r *domain.InferenceResult) error
}

// Status describes a configured check.
type Status struct {
	Name    string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Validator runs the rule checks in a fixed order:
// whitelist, tag count, contradiction, confidence.
type Validator struct {
	config Config
	steps  []Check
}

// New creates a validator for the given bounds.
func New(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Validator{
		config: cfg,
		steps: []Check{
			&whitelistCheck{},
			&tagCountCheck{min: cfg.MinTags, max: cfg.MaxTags},
			&contradictionCheck{pairs: domain.ContradictionPairs()},
			&confidenceCheck{threshold: cfg.AdvisoryConfidence},
		},
	}, nil
}

// Config returns the bounds the validator was built with.
func (v *Validator) Config() Config {
	return v.config
}

// Validate applies every check until one fails. On success it returns whether
// the confidence falls below the advisory threshold; that signal is never an error.
func (v *Validator) Validate(r *domain.InferenceResult) (needsConfirmation bool, err error) {
	if r == nil {
		return false, fmt.Errorf("%w: inference result is nil", domain.ErrMalformedResponse)
	}

	for _, step := range v.steps {
		if err := step.Apply(r); err != nil {
			return false, err
		}
	}

	return r.Confidence < v.config.AdvisoryConfidence, nil
}

// Describe returns status entries for the configured checks in execution order.
func (v *Validator) Describe() []Status {
	statuses := make([]Status, 0, len(v.steps))
	for _, step := range v.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name()})
	}
	return statuses
}

type whitelistCheck struct{}

func (c *whitelistCheck) Name() string { return "whitelist" }

func (c *whitelistCheck) Apply(r *domain.InferenceResult) error {
	if invalid := domain.Disallowed(r.Tags, r.Exclusions); len(invalid) > 0 {
		return &domain.WhitelistError{Values: invalid}
	}
	return nil
}

func (c *whitelistCheck) Status() Status {
	return Status{Name: c.Name(), Details: map[string]string{
		"allowed_tags": strconv.Itoa(len(domain.TagNames())),
	}}
}

// Exclusions carry no count bound here.
type tagCountCheck struct {
	min int
	max int
}

func (c *tagCountCheck) Name() string { return "tag_count" }

func (c *tagCountCheck) Apply(r *domain.InferenceResult) error {
	count := len(r.Tags)
	if count < c.min || count > c.max {
		return &domain.TagCountError{Min: c.min, Max: c.max, Count: count}
	}
	return nil
}

func (c *tagCountCheck) Status() Status {
	return Status{Name: c.Name(), Details: map[string]string{
		"min_tags": strconv.Itoa(c.min),
		"max_tags": strconv.Itoa(c.max),
	}}
}

type contradictionCheck struct {
	pairs []domain.ContradictionPair
}

func (c *contradictionCheck) Name() string { return "contradiction" }

func (c *contradictionCheck) Apply(r *domain.InferenceResult) error {
	present := make(map[domain.Tag]struct{}, len(r.Tags))
	for _, t := range r.Tags {
		present[t] = struct{}{}
	}

	var conflicts []domain.ContradictionPair
	for _, pair := range c.pairs {
		_, hasA := present[pair[0]]
		_, hasB := present[pair[1]]
		if hasA && hasB {
			conflicts = append(conflicts, pair)
		}
	}

	if len(conflicts) > 0 {
		return &domain.ContradictionError{Pairs: conflicts}
	}
	return nil
}

func (c *contradictionCheck) Status() Status {
	return Status{Name: c.Name(), Details: map[string]string{
		"pairs": strconv.Itoa(len(c.pairs)),
	}}
}

type confidenceCheck struct {
	threshold float64
}

func (c *confidenceCheck) Name() string { return "confidence" }

// Bounds are inclusive.
func (c *confidenceCheck) Apply(r *domain.InferenceResult) error {
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return &domain.ConfidenceError{Confidence: r.Confidence}
	}
	return nil
}

func (c *confidenceCheck) Status() Status {
	return Status{Name: c.Name(), Details: map[string]string{
		"advisory_threshold": fmt.Sprintf("%.2f", c.threshold),
	}}
}
