package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/logger"
	"github.com/spigell/interest-filter/internal/secrets"
	"github.com/spigell/interest-filter/internal/utils"
)

const (
	providerName = "gemini"

	DefaultModel           = "gemini-2.5-flash-lite"
	DefaultMaxRetries      = 2
	DefaultTimeout         = 20 * time.Second
	DefaultMaxOutputTokens = 256
	DefaultMaxLogLength    = 200

	retryBaseDelay = 300 * time.Millisecond
	// maxQuotaWait caps how long a rate-limited call may wait before retrying.
	maxQuotaWait = 10 * time.Second
)

// Config holds the ai.gemini section of the configuration.
type Config struct {
	Model             string        `mapstructure:"model"`
	MaxRetries        int           `mapstructure:"max-retries"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxOutputTokens   int32         `mapstructure:"max-output-tokens"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxLogLength      int           `mapstructure:"max-log-length"`
	APIKey            string        `mapstructure:"api-key"`
	APIKeyFile        string        `mapstructure:"api-key-file"`
}

// DecodeFunc turns the text of one response into a payload. A decode error
// fails the attempt and is retried like a transport error.
type DecodeFunc func(text string) (any, error)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var wait = utils.WaitFor

// Generator sends prompts to Gemini in JSON response mode with bounded retries.
type Generator struct {
	models     contentModels
	model      string
	maxRetries int
	timeout    time.Duration
	config     *genai.GenerateContentConfig
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API backend. The API key is
// resolved from the key file, the inline value or GEMINI_API_KEY, in that order.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(models contentModels, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	tokens := cfg.MaxOutputTokens
	if tokens <= 0 {
		tokens = DefaultMaxOutputTokens
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Generator{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		timeout:    cfg.Timeout,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
			MaxOutputTokens:  tokens,
		},
		limiter: limiter,
		logger:  logger.WithCommonFields(log, providerName, model),
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate sends the prompt and decodes the response. Failed attempts are
// retried up to maxRetries times with exponential backoff, except for client
// errors and cancellation of ctx.
func (g *Generator) Generate(ctx context.Context, prompt string, decode DecodeFunc) (any, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		attempts++

		payload, err := g.attempt(ctx, prompt, decode)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("gemini call cancelled: %w", ctxErr)
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Debug("gemini attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, fmt.Errorf("gemini call cancelled: %w", err)
		}
	}

	return nil, fmt.Errorf("gemini call failed after %d attempts: %w", attempts, lastErr)
}

// GenerateContent returns the raw text of the first successful response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload, err := g.Generate(ctx, prompt, func(text string) (any, error) { return text, nil })
	if err != nil {
		return "", err
	}
	return payload.(string), nil
}

func (g *Generator) attempt(ctx context.Context, prompt string, decode DecodeFunc) (any, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	attemptCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(attemptCtx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	if decode == nil {
		return text, nil
	}
	return decode(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay reports whether err is worth another attempt and how long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	delay := utils.Backoff(retryBaseDelay, attempt)

	apiErr, ok := asAPIError(err)
	if !ok {
		return delay, true
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		hint, found := quotaDelay(apiErr)
		if !found {
			return delay, true
		}
		if hint > maxQuotaWait {
			return 0, false
		}
		return max(delay, hint), true
	case apiErr.Code >= http.StatusInternalServerError:
		return delay, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*(?:s\b|sec|second)`)

// quotaDelay extracts the server's retry hint from a RetryInfo detail or the message.
func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "RetryInfo") {
			continue
		}
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d, true
			}
		}
	}

	if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
	}

	return 0, false
}

func responseSchema() *genai.Schema {
	tag := &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: domain.TagNames()}
	fields := []string{"tags", "exclusions", "confidence", "rationale", "warnings"}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tags":       {Type: genai.TypeArray, Items: tag},
			"exclusions": {Type: genai.TypeArray, Items: tag},
			"confidence": {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
			"rationale":  {Type: genai.TypeString},
			"warnings":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required:         fields,
		PropertyOrdering: fields,
	}
}
