package maturity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplant/speckit-extension/pkg/types"
)

func TestDecodeJSONCoercesUnknownValues(t *testing.T) {
	data := []byte(`{
  "lastUpdated": "2024-01-15T10:00:00Z",
  "userStories": {
    "US1": {
      "overall": "great",
      "scenarios": {
        "US1-AS1": {"level": "done", "tests": [{"filePath": "a.spec.ts", "testName": "t", "status": "flaky"}]},
        "US1-AS2": null
      }
    },
    "US2": null
  }
}`)
	rec, err := decodeJSON(data)
	require.NoError(t, err)

	require.Len(t, rec.UserStories, 1)
	us1 := rec.UserStories["US1"]
	assert.Equal(t, types.MaturityNone, us1.Overall)
	require.Len(t, us1.Scenarios, 1)
	assert.Equal(t, types.MaturityNone, us1.Scenarios["US1-AS1"].Level)
	assert.Equal(t, types.TestUnknown, us1.Scenarios["US1-AS1"].Tests[0].Status)
}

func TestDecodeJSONRejectsMalformed(t *testing.T) {
	_, err := decodeJSON([]byte(`{"userStories":`))
	assert.Error(t, err)
}

func TestEncodeJSON(t *testing.T) {
	rec := types.NewMaturityRecord()
	rec.LastUpdated = "2024-01-15T10:00:00Z"
	rec.UserStories["US1"] = &types.StoryMaturity{
		Scenarios: map[string]*types.ScenarioMaturity{
			"US1-AS1": {Level: types.MaturityComplete},
			"US1-AS2": {Level: types.MaturityPartial},
		},
	}

	data, err := encodeJSON(rec)
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, `"overall": "partial"`)
	assert.Contains(t, out, `"tests": []`)
	assert.NotContains(t, out, "testConfig")

	back, err := decodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, types.MaturityPartial, back.UserStories["US1"].Overall)
}
