package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/logger"
	"github.com/spigell/interest-filter/internal/utils"
)

type contentGenerator interface {
	Generate(ctx context.Context, prompt string, decode DecodeFunc) (any, error)
	Model() string
}

// TagInferrer asks Gemini for a tag payload and returns it undecoded.
type TagInferrer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewTagInferrer(generator contentGenerator, log *zap.Logger, maxLogLength int) *TagInferrer {
	if maxLogLength <= 0 {
		maxLogLength = DefaultMaxLogLength
	}

	return &TagInferrer{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// Infer sends the prompt and returns the JSON object found in the response as
// generic maps and slices. Numbers are kept as json.Number.
func (t *TagInferrer) Infer(ctx context.Context, prompt string) (any, error) {
	t.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, t.maxLogLen)),
	)

	return t.generator.Generate(ctx, prompt, func(raw string) (any, error) {
		t.logger.Debug("gemini generate content response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, t.maxLogLen)),
		)
		return parsePayload(raw)
	})
}

func parsePayload(raw string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(extractJSON(raw)))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parse gemini response: %w", domain.ErrMalformedResponse, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", domain.ErrMalformedResponse)
	}

	return payload, nil
}

var fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// extractJSON returns the body of the first ``` or ```json fence, or the
// trimmed input when there is none.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}
