package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Priority ranks a user story. Lower values are more important.
type Priority int

// Recognized priorities.
const (
	PriorityP1 Priority = 1
	PriorityP2 Priority = 2
	PriorityP3 Priority = 3
)

// String returns the textual form, e.g. "P1".
func (p Priority) String() string {
	return "P" + strconv.Itoa(int(p))
}

// Valid reports whether p is one of P1..P3.
func (p Priority) Valid() bool {
	return p >= PriorityP1 && p <= PriorityP3
}

// FeatureSpec is one specification directory and the stories parsed from
// its primary document. It is rebuilt on every parse.
type FeatureSpec struct {
	Dir         string      `json:"dir"`
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Number      int         `json:"number"`
	SpecPath    string      `json:"spec_path"`
	PlanPath    string      `json:"plan_path,omitempty"`
	Stories     []UserStory `json:"stories"`
	ModTime     time.Time   `json:"mod_time"`
}

// Story returns the story with the given number.
func (f *FeatureSpec) Story(number int) (*UserStory, bool) {
	for i := range f.Stories {
		if f.Stories[i].Number == number {
			return &f.Stories[i], true
		}
	}
	return nil, false
}

// Scenario returns the scenario with the given identifier from any story.
func (f *FeatureSpec) Scenario(id string) (*AcceptanceScenario, bool) {
	for i := range f.Stories {
		for j := range f.Stories[i].Scenarios {
			if f.Stories[i].Scenarios[j].ID == id {
				return &f.Stories[i].Scenarios[j], true
			}
		}
	}
	return nil, false
}

// UserStory is a prioritized capability owned by a FeatureSpec. Feature
// names the owning feature directory; it is a lookup key, not a pointer.
type UserStory struct {
	Number          int                  `json:"number"`
	Title           string               `json:"title"`
	Priority        Priority             `json:"priority"`
	StartLine       int                  `json:"start_line"`
	EndLine         int                  `json:"end_line"`
	Description     string               `json:"description,omitempty"`
	WhyPriority     string               `json:"why_priority,omitempty"`
	IndependentTest string               `json:"independent_test,omitempty"`
	Scenarios       []AcceptanceScenario `json:"scenarios"`
	Feature         string               `json:"feature"`
}

// ID returns the story key used by the maturity record, e.g. "US1".
func (s *UserStory) ID() string {
	return StoryKey(s.Number)
}

// AcceptanceScenario is a Given/When/Then case owned by a UserStory.
// Number is the base ordinal; Suffix holds an optional sub-scenario letter.
type AcceptanceScenario struct {
	Number      int               `json:"number"`
	Suffix      string            `json:"suffix,omitempty"`
	ID          string            `json:"id"`
	Given       string            `json:"given"`
	When        string            `json:"when"`
	Then        string            `json:"then"`
	Line        int               `json:"line"`
	StoryNumber int               `json:"story_number"`
	Tests       []IntegrationTest `json:"tests,omitempty"`
}

// IntegrationTest is a test declaration located in a test source file.
// ScenarioID is set by the caller once the test is attached to a scenario.
type IntegrationTest struct {
	FilePath   string `json:"file_path"`
	FileName   string `json:"file_name"`
	TestName   string `json:"test_name,omitempty"`
	Line       int    `json:"line,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	ScenarioID string `json:"scenario_id,omitempty"`
}

var (
	storyIDPattern    = regexp.MustCompile(`^US(\d+)$`)
	scenarioIDPattern = regexp.MustCompile(`^US(\d+)-AS(\d+)([a-z]?)$`)
)

// StoryKey formats a story number as "US<N>".
func StoryKey(number int) string {
	return fmt.Sprintf("US%d", number)
}

// ScenarioKey formats a scenario identifier as "US<S>-AS<N>[suffix]".
func ScenarioKey(story, number int, suffix string) string {
	return fmt.Sprintf("US%d-AS%d%s", story, number, suffix)
}

// ParseStoryID parses "US<N>". Returns ErrInvalidStoryID on mismatch.
func ParseStoryID(id string) (int, error) {
	m := storyIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStoryID, id)
	}
	n, _ := strconv.Atoi(m[1])
	return n, nil
}

// ParseScenarioID splits "US<S>-AS<N>[suffix]" into its parts.
// Returns ErrInvalidScenarioID on mismatch.
func ParseScenarioID(id string) (story, number int, suffix string, err error) {
	m := scenarioIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidScenarioID, id)
	}
	story, _ = strconv.Atoi(m[1])
	number, _ = strconv.Atoi(m[2])
	return story, number, m[3], nil
}

// StoryOfScenario returns the story key ("US<S>") for a scenario identifier.
func StoryOfScenario(id string) (string, error) {
	story, _, _, err := ParseScenarioID(id)
	if err != nil {
		return "", err
	}
	return StoryKey(story), nil
}
