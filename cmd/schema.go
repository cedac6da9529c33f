package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/validation"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the payload expected from the model",
	Run: func(_ *cobra.Command, _ []string) {
		out, err := payloadSchema()
		if err != nil {
			log.Fatalf("generating schema: %v", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func payloadSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&validation.Payload{})

	enum := make([]any, 0, len(domain.TagNames()))
	for _, name := range domain.TagNames() {
		enum = append(enum, name)
	}

	for _, field := range []string{"tags", "exclusions"} {
		if prop, ok := schema.Properties.Get(field); ok && prop.Items != nil {
			prop.Items.Enum = enum
		}
	}

	return json.MarshalIndent(schema, "", "  ")
}
