// Package prompts renders the instructions sent to the inference collaborator.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spigell/interest-filter/internal/ai"
	"github.com/spigell/interest-filter/internal/domain"
)

const (
	Baseline       = "baseline"
	FewShot        = "fewshot"
	Contradictions = "contradictions"

	// Default is used when no prompt name is configured.
	Default = Baseline

	defaultMinTags = 3
	defaultMaxTags = 7
)

var (
	//go:embed templates/baseline.md
	baselineTemplate string
	//go:embed templates/fewshot.md
	fewShotTemplate string
	//go:embed templates/contradictions.md
	contradictionsTemplate string
)

var builders = map[string]ai.PromptBuilder{
	Baseline:       templateBuilder(baselineTemplate),
	FewShot:        templateBuilder(fewShotTemplate),
	Contradictions: templateBuilder(contradictionsTemplate),
}

// Names lists the registered builders in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the builder registered under name. An empty name selects Default.
func Get(name string) (ai.PromptBuilder, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = Default
	}

	builder, ok := builders[name]
	if !ok {
		return nil, domain.InvalidArgument("prompt", "unknown prompt %q, expected one of: %s", name, strings.Join(Names(), ", "))
	}
	return builder, nil
}

type constraints struct {
	Radius       *float64 `json:"radius,omitempty"`
	LocationHint string   `json:"locationHint,omitempty"`
}

func templateBuilder(template string) ai.PromptBuilder {
	return func(pc ai.PromptContext) (string, error) {
		allowed := pc.AllowedTags
		if len(allowed) == 0 {
			allowed = domain.AllowedTags()
		}

		table, err := json.MarshalIndent(allowed, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal allowed tags: %w", err)
		}

		limits, err := json.Marshal(constraints{
			Radius:       pc.Radius,
			LocationHint: strings.TrimSpace(pc.LocationHint),
		})
		if err != nil {
			return "", fmt.Errorf("marshal constraints: %w", err)
		}

		minTags, maxTags := pc.MinTags, pc.MaxTags
		if minTags <= 0 && maxTags <= 0 {
			minTags, maxTags = defaultMinTags, defaultMaxTags
		}

		replacer := strings.NewReplacer(
			"{{TEXT}}", sanitizeText(pc.Text),
			"{{ALLOWED_TAGS}}", string(table),
			"{{CONSTRAINTS}}", string(limits),
			"{{CONTRADICTIONS}}", contradictionList(),
			"{{MIN_TAGS}}", strconv.Itoa(minTags),
			"{{MAX_TAGS}}", strconv.Itoa(maxTags),
		)

		return strings.TrimSpace(replacer.Replace(template)) + "\n", nil
	}
}

// sanitizeText keeps the user text from closing the triple-quoted block.
func sanitizeText(text string) string {
	text = strings.TrimSpace(text)
	for strings.Contains(text, `"""`) {
		text = strings.ReplaceAll(text, `"""`, `"`)
	}
	return text
}

func contradictionList() string {
	pairs := domain.ContradictionPairs()
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, fmt.Sprintf("%q vs %q", p[0], p[1]))
	}
	return strings.Join(out, ", ")
}
