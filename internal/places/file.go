package places

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interest-filter/internal/domain"
)

type seedFile struct {
	Places []domain.Place `yaml:"places"`
}

// LoadFile reads seed places from a YAML document with a top-level "places" list.
// Every place needs an id and every tag must belong to the vocabulary.
func LoadFile(path string) ([]domain.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read places file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse places file %q: %w", path, err)
	}

	if err := Validate(seed.Places); err != nil {
		return nil, fmt.Errorf("places file %q: %w", path, err)
	}

	return seed.Places, nil
}

// Validate checks seed places coming from outside the binary.
func Validate(places []domain.Place) error {
	for n, p := range places {
		if strings.TrimSpace(p.ID) == "" {
			return domain.InvalidArgument("places", "place #%d has no id", n+1)
		}
		if invalid := domain.Disallowed(p.Tags); len(invalid) > 0 {
			return fmt.Errorf("place %q: %w", p.ID, &domain.WhitelistError{Values: invalid})
		}
	}
	return nil
}
