package cmd

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spigell/interest-filter/internal/domain"
)

func TestPayloadSchema(t *testing.T) {
	out, err := payloadSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type  string `json:"type"`
			Items *struct {
				Enum []string `json:"enum"`
			} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(out, &schema); err != nil {
		t.Fatalf("decode schema: %v", err)
	}

	if diff := cmp.Diff([]string{"confidence"}, schema.Required); diff != "" {
		t.Fatalf("unexpected required fields (-want +got):\n%s", diff)
	}

	tags, ok := schema.Properties["tags"]
	if !ok || tags.Type != "array" || tags.Items == nil {
		t.Fatalf("expected tags to be an array, got %+v", tags)
	}
	if diff := cmp.Diff(domain.TagNames(), tags.Items.Enum); diff != "" {
		t.Fatalf("unexpected tag enum (-want +got):\n%s", diff)
	}

	if schema.Properties["confidence"].Type != "number" {
		t.Fatalf("expected confidence to be a number")
	}
}
