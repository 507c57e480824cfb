package types

import (
	"fmt"
	"strings"
)

// MaturityLevel rates how well a scenario is verified. Levels are totally
// ordered: none < partial < complete.
type MaturityLevel string

// Maturity levels.
const (
	MaturityNone     MaturityLevel = "none"
	MaturityPartial  MaturityLevel = "partial"
	MaturityComplete MaturityLevel = "complete"
)

var levelRank = map[MaturityLevel]int{
	MaturityNone:     0,
	MaturityPartial:  1,
	MaturityComplete: 2,
}

// ParseMaturityLevel validates s. Returns ErrInvalidLevel for unknown values.
func ParseMaturityLevel(s string) (MaturityLevel, error) {
	l := MaturityLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return l, nil
}

// Valid reports whether l is a recognized level.
func (l MaturityLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank returns the position of l in the total order. Unknown levels rank
// with none so they never overstate completeness.
func (l MaturityLevel) Rank() int {
	return levelRank[l]
}

// MinLevel returns the lowest of the given levels, ignoring empty values.
// It returns MaturityNone when no level is given.
func MinLevel(levels ...MaturityLevel) MaturityLevel {
	var lowest MaturityLevel
	for _, l := range levels {
		if l == "" {
			continue
		}
		if !l.Valid() {
			l = MaturityNone
		}
		if lowest == "" || l.Rank() < lowest.Rank() {
			lowest = l
		}
	}
	if lowest == "" {
		return MaturityNone
	}
	return lowest
}

// TestStatus is the outcome of the most recent run of a test.
type TestStatus string

// Test statuses.
const (
	TestPass    TestStatus = "pass"
	TestFail    TestStatus = "fail"
	TestUnknown TestStatus = "unknown"
)

// ParseTestStatus validates s. Returns ErrInvalidStatus for unknown values.
func ParseTestStatus(s string) (TestStatus, error) {
	switch st := TestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TestPass, TestFail, TestUnknown:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// StatusFromExitCode maps a process exit code to a TestStatus.
func StatusFromExitCode(code int) TestStatus {
	if code == 0 {
		return TestPass
	}
	return TestFail
}

// MaturityRecord is the persisted verification state of one specification
// directory, keyed by story ("US1") and then scenario ("US1-AS2").
type MaturityRecord struct {
	LastUpdated string                    `json:"lastUpdated"`
	TestConfig  *TestConfig               `json:"testConfig,omitempty"`
	UserStories map[string]*StoryMaturity `json:"userStories"`
}

// StoryMaturity holds the stored overall level of a story and its
// scenarios. An empty Overall means the value was never recorded.
type StoryMaturity struct {
	Overall   MaturityLevel                `json:"overall"`
	Scenarios map[string]*ScenarioMaturity `json:"scenarios"`
}

// ScenarioMaturity is the level and recorded tests of one scenario.
type ScenarioMaturity struct {
	Level MaturityLevel `json:"level"`
	Tests []TestEntry   `json:"tests"`
}

// TestEntry records one test and the outcome of its last run.
type TestEntry struct {
	FilePath string     `json:"filePath"`
	TestName string     `json:"testName"`
	Status   TestStatus `json:"status"`
	LastRun  string     `json:"lastRun,omitempty"`
}

// NewMaturityRecord returns an empty record.
func NewMaturityRecord() *MaturityRecord {
	return &MaturityRecord{UserStories: make(map[string]*StoryMaturity)}
}

// Clone returns a deep copy of r.
func (r *MaturityRecord) Clone() *MaturityRecord {
	out := &MaturityRecord{
		LastUpdated: r.LastUpdated,
		UserStories: make(map[string]*StoryMaturity, len(r.UserStories)),
	}
	if r.TestConfig != nil {
		tc := *r.TestConfig
		out.TestConfig = &tc
	}
	for key, story := range r.UserStories {
		if story == nil {
			continue
		}
		cp := &StoryMaturity{
			Overall:   story.Overall,
			Scenarios: make(map[string]*ScenarioMaturity, len(story.Scenarios)),
		}
		for id, sc := range story.Scenarios {
			if sc == nil {
				continue
			}
			tests := make([]TestEntry, len(sc.Tests))
			copy(tests, sc.Tests)
			cp.Scenarios[id] = &ScenarioMaturity{Level: sc.Level, Tests: tests}
		}
		out.UserStories[key] = cp
	}
	return out
}

// Scenario returns the scenario entry, or nil when absent.
func (r *MaturityRecord) Scenario(storyKey, scenarioID string) *ScenarioMaturity {
	story := r.UserStories[storyKey]
	if story == nil {
		return nil
	}
	return story.Scenarios[scenarioID]
}

// EnsureScenario returns the scenario entry, creating the story and
// scenario with level none when absent.
func (r *MaturityRecord) EnsureScenario(storyKey, scenarioID string) *ScenarioMaturity {
	if r.UserStories == nil {
		r.UserStories = make(map[string]*StoryMaturity)
	}
	story := r.UserStories[storyKey]
	if story == nil {
		story = &StoryMaturity{Scenarios: make(map[string]*ScenarioMaturity)}
		r.UserStories[storyKey] = story
	}
	if story.Scenarios == nil {
		story.Scenarios = make(map[string]*ScenarioMaturity)
	}
	sc := story.Scenarios[scenarioID]
	if sc == nil {
		sc = &ScenarioMaturity{Level: MaturityNone, Tests: []TestEntry{}}
		story.Scenarios[scenarioID] = sc
	}
	return sc
}

// LowestScenario returns the minimum level over the story's scenarios and
// false when the story has none.
func (s *StoryMaturity) LowestScenario() (MaturityLevel, bool) {
	if len(s.Scenarios) == 0 {
		return "", false
	}
	levels := make([]MaturityLevel, 0, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		if sc == nil {
			continue
		}
		l := sc.Level
		if l == "" {
			l = MaturityNone
		}
		levels = append(levels, l)
	}
	return MinLevel(levels...), true
}

// Displayed returns min(stored overall, lowest scenario level). A story
// never reports more than its weakest scenario.
func (s *StoryMaturity) Displayed() MaturityLevel {
	lowest, _ := s.LowestScenario()
	return MinLevel(s.Overall, lowest)
}

// RecomputeOverall sets Overall to the lowest scenario level.
func (s *StoryMaturity) RecomputeOverall() {
	lowest, ok := s.LowestScenario()
	if !ok {
		if s.Overall == "" {
			s.Overall = MaturityNone
		}
		return
	}
	s.Overall = lowest
}

// SetTest adds e, or replaces the existing entry with the same test name.
func (s *ScenarioMaturity) SetTest(e TestEntry) {
	for i := range s.Tests {
		if s.Tests[i].TestName == e.TestName {
			s.Tests[i] = e
			return
		}
	}
	s.Tests = append(s.Tests, e)
}

// TestConfig describes how tests for a specification are run. Command
// templates accept {testName}, {filePath}, {testDir}, {scenarioId} and
// {userStoryPattern} placeholders.
type TestConfig struct {
	Framework            string `json:"framework"`
	RunCommand           string `json:"runCommand"`
	RunSingleTestCommand string `json:"runSingleTestCommand,omitempty"`
	RunScenarioCommand   string `json:"runScenarioCommand,omitempty"`
	RunUserStoryCommand  string `json:"runUserStoryCommand,omitempty"`
}

// SingleTestCommand expands RunSingleTestCommand, falling back to RunCommand.
func (c TestConfig) SingleTestCommand(testName, filePath, testDir string) string {
	if c.RunSingleTestCommand == "" {
		return c.RunCommand
	}
	return expandPlaceholders(c.RunSingleTestCommand, map[string]string{
		"testName": testName,
		"filePath": filePath,
		"testDir":  testDir,
	})
}

// ScenarioCommand expands RunScenarioCommand, falling back to RunCommand.
func (c TestConfig) ScenarioCommand(scenarioID string) string {
	if c.RunScenarioCommand == "" {
		return c.RunCommand
	}
	return expandPlaceholders(c.RunScenarioCommand, map[string]string{"scenarioId": scenarioID})
}

// UserStoryCommand expands RunUserStoryCommand, falling back to RunCommand.
// The pattern matches every scenario of the story, e.g. "US1-AS".
func (c TestConfig) UserStoryCommand(storyNumber int) string {
	if c.RunUserStoryCommand == "" {
		return c.RunCommand
	}
	return expandPlaceholders(c.RunUserStoryCommand, map[string]string{
		"userStoryPattern": StoryKey(storyNumber) + "-AS",
	})
}

func expandPlaceholders(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
