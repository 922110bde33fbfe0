package sequences

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the sequence file schema.
const SchemaID = "https://opencode.ai/schemas/sequencer/sequence.json"

// Schema returns the JSON Schema for sequence files. Field names follow the
// YAML keys, so editors can validate sequence files directly.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		FieldNameTag:               "yaml",
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&Sequence{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Sequence"
	schema.Description = "A named timeline of sleep, call, animate, launch and wait steps."
	return schema
}

// SchemaJSON returns the indented schema document.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
