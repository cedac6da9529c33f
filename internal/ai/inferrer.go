package ai

import (
	"context"

	"github.com/spigell/interest-filter/internal/domain"
)

// Inferrer turns a prompt into an untyped payload. The payload is untrusted and
// must be normalized and validated by the caller.
type Inferrer interface {
	Infer(ctx context.Context, prompt string) (any, error)
}

// PromptContext carries everything a prompt builder needs.
type PromptContext struct {
	Text         string
	AllowedTags  []domain.AllowedTag
	Radius       *float64
	LocationHint string
	// MinTags and MaxTags are the tag-count bounds advertised to the model.
	MinTags int
	MaxTags int
}

// PromptBuilder renders a prompt for the given context.
type PromptBuilder func(PromptContext) (string, error)
