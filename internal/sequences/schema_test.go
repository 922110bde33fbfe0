package sequences

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaFollowsYAMLKeys(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var doc struct {
		ID         string   `json:"$id"`
		Title      string   `json:"title"`
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type  string `json:"type"`
			Items struct {
				Required   []string `json:"required"`
				Properties map[string]struct {
					Enum []string `json:"enum"`
				} `json:"properties"`
			} `json:"items"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Equal(t, SchemaID, doc.ID)
	require.Equal(t, "Sequence", doc.Title)
	require.ElementsMatch(t, []string{"name", "steps"}, doc.Required)
	require.NotContains(t, doc.Properties, "source")
	require.Contains(t, doc.Properties, "variables")
	require.Contains(t, doc.Properties, "targets")

	steps := doc.Properties["steps"]
	require.Equal(t, "array", steps.Type)
	require.Equal(t, []string{"type"}, steps.Items.Required)
	require.Contains(t, steps.Items.Properties["type"].Enum, "sleep")
	require.Contains(t, steps.Items.Properties["type"].Enum, "animation")
}
