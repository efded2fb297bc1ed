package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSONInsertsMissingOpeningQuote(t *testing.T) {
	cases := map[string]string{
		`{name": "kafka"}`:                  `{"name": "kafka"}`,
		`{"name": "kafka", type": "tool"}`:  `{"name": "kafka", "type": "tool"}`,
		`{ concept name": "x"}`:             `{ "concept name": "x"}`,
		"{\n  from_id\": 1}":                "{\n  \"from_id\": 1}",
	}

	for input, want := range cases {
		got := repairJSON(input)
		assert.Equal(t, want, got)
		assert.True(t, json.Valid([]byte(got)), "repaired output must parse: %s", got)
	}
}

func TestRepairJSONLeavesValidInputAlone(t *testing.T) {
	valid := `{"concepts": [{"name": "data mesh", "category": "methodology"}], "count": 1}`
	assert.Equal(t, valid, repairJSON(valid))

	// Unrepairable garbage passes through unchanged for the caller to reject
	garbage := `not json at all`
	assert.Equal(t, garbage, repairJSON(garbage))
}

func TestRepairJSONRoundTrip(t *testing.T) {
	broken := `{concepts": [{name": "cqrs", category": "pattern"}]}`

	var payload struct {
		Concepts []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"concepts"`
	}
	require.NoError(t, json.Unmarshal([]byte(repairJSON(broken)), &payload))
	require.Len(t, payload.Concepts, 1)
	assert.Equal(t, "cqrs", payload.Concepts[0].Name)
	assert.Equal(t, "pattern", payload.Concepts[0].Category)
}
