package maturity

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theplant/speckit-extension/pkg/types"
)

var (
	legacyUpdatedPattern = regexp.MustCompile(`^lastUpdated:\s*\S`)
	legacySectionPattern = regexp.MustCompile(`^##\s+(US\d+)\s*$`)
	legacyHeaderPattern  = regexp.MustCompile(`^##\s`)
	legacyEntryPattern   = regexp.MustCompile(`^\s*[-*]\s+\*\*(Overall|US\d+-AS\d+[a-z]?)\*\*:\s*(\w+)\s*(?:\|\s*tests:\s*\[(.*)\])?\s*$`)
)

var legacyMarks = map[string]types.TestStatus{
	"✓": types.TestPass,
	"✗": types.TestFail,
	"?": types.TestUnknown,
}

// parseLegacy reads the markdown maturity list. Lines that match neither a
// "## US<N>" section header nor an entry are skipped, and entries outside a
// story section are discarded.
func parseLegacy(content string) *types.MaturityRecord {
	rec := types.NewMaturityRecord()
	story := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")

		if legacyUpdatedPattern.MatchString(line) {
			var v struct {
				LastUpdated string `yaml:"lastUpdated"`
			}
			if err := yaml.Unmarshal([]byte(line), &v); err == nil {
				rec.LastUpdated = v.LastUpdated
			}
			continue
		}
		if m := legacySectionPattern.FindStringSubmatch(line); m != nil {
			story = m[1]
			continue
		}
		if legacyHeaderPattern.MatchString(line) {
			story = ""
			continue
		}
		if story == "" {
			continue
		}
		m := legacyEntryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level, err := types.ParseMaturityLevel(m[2])
		if err != nil {
			continue
		}
		if m[1] == "Overall" {
			ensureStory(rec, story).Overall = level
			continue
		}
		sc := rec.EnsureScenario(story, m[1])
		sc.Level = level
		sc.Tests = parseLegacyTests(m[3])
	}
	return rec
}

func ensureStory(rec *types.MaturityRecord, key string) *types.StoryMaturity {
	s := rec.UserStories[key]
	if s == nil {
		s = &types.StoryMaturity{Scenarios: make(map[string]*types.ScenarioMaturity)}
		rec.UserStories[key] = s
	}
	return s
}

// parseLegacyTests parses "name: ✓, other: ✗". Unrecognized marks read as
// unknown; items without a mark are skipped.
func parseLegacyTests(list string) []types.TestEntry {
	tests := []types.TestEntry{}
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		i := strings.LastIndex(item, ":")
		if i <= 0 {
			continue
		}
		name := strings.TrimSpace(item[:i])
		status, ok := legacyMarks[strings.TrimSpace(item[i+1:])]
		if !ok {
			status = types.TestUnknown
		}
		tests = append(tests, types.TestEntry{TestName: name, Status: status})
	}
	return tests
}
