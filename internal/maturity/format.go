package maturity

import (
	"encoding/json"
	"fmt"

	"github.com/theplant/speckit-extension/pkg/types"
)

// decodeJSON parses the current format. Unknown levels and statuses are
// coerced to none and unknown so that a record never overstates progress.
func decodeJSON(data []byte) (*types.MaturityRecord, error) {
	var rec types.MaturityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode maturity json: %w", err)
	}
	if rec.UserStories == nil {
		rec.UserStories = make(map[string]*types.StoryMaturity)
	}
	for key, story := range rec.UserStories {
		if story == nil {
			delete(rec.UserStories, key)
			continue
		}
		if story.Overall != "" && !story.Overall.Valid() {
			story.Overall = types.MaturityNone
		}
		if story.Scenarios == nil {
			story.Scenarios = make(map[string]*types.ScenarioMaturity)
		}
		for id, sc := range story.Scenarios {
			if sc == nil {
				delete(story.Scenarios, id)
				continue
			}
			if !sc.Level.Valid() {
				sc.Level = types.MaturityNone
			}
			for i := range sc.Tests {
				if _, err := types.ParseTestStatus(string(sc.Tests[i].Status)); err != nil {
					sc.Tests[i].Status = types.TestUnknown
				}
			}
		}
	}
	return &rec, nil
}

// encodeJSON renders rec in the current format. Stories without a stored
// overall get the lowest scenario level, and nil test lists become empty
// arrays, so the output always satisfies the schema.
func encodeJSON(rec *types.MaturityRecord) ([]byte, error) {
	for _, story := range rec.UserStories {
		if story.Overall == "" {
			story.RecomputeOverall()
		}
		if story.Scenarios == nil {
			story.Scenarios = make(map[string]*types.ScenarioMaturity)
		}
		for _, sc := range story.Scenarios {
			if sc.Level == "" {
				sc.Level = types.MaturityNone
			}
			if sc.Tests == nil {
				sc.Tests = []types.TestEntry{}
			}
		}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode maturity json: %w", err)
	}
	return append(data, '\n'), nil
}
