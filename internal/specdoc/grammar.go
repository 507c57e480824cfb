package specdoc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/theplant/speckit-extension/pkg/types"
)

var (
	storyHeadingPattern = regexp.MustCompile(`^###\s+User Story\s+(\d+)\s*[-–—]\s*(.+?)\s*\(Priority:\s*P([1-3])\)\s*$`)

	explicitScenarioPattern = regexp.MustCompile(`^\s*(\d+)([a-z])?\.\s+\*\*US(\d+)-AS(\d+)([a-z])?\*\*:?\s*` + clausePattern)
	implicitScenarioPattern = regexp.MustCompile(`^\s*(\d+)\.\s+` + clausePattern)

	whyPriorityPattern     = regexp.MustCompile(`(?i)^\*\*why this priority:?\*\*:?\s*(.*)$`)
	independentTestPattern = regexp.MustCompile(`(?i)^\*\*independent test:?\*\*:?\s*(.*)$`)

	rulePattern = regexp.MustCompile(`^-{3,}$`)
)

const clausePattern = `\*\*Given\*\*\s*(.*?),?\s*\*\*When\*\*\s*(.*?),?\s*\*\*Then\*\*\s*(.*?)\s*$`

const acceptanceMarker = "Acceptance Scenarios"

// storyHeading is a matched "### User Story N - Title (Priority: Pk)" line.
type storyHeading struct {
	number   int
	title    string
	priority types.Priority
}

func matchStoryHeading(line string) (storyHeading, bool) {
	m := storyHeadingPattern.FindStringSubmatch(line)
	if m == nil {
		return storyHeading{}, false
	}
	n, _ := strconv.Atoi(m[1])
	p, _ := strconv.Atoi(m[3])
	return storyHeading{number: n, title: m[2], priority: types.Priority(p)}, true
}

// isRule reports whether line is a horizontal rule of three or more hyphens.
func isRule(line string) bool {
	return rulePattern.MatchString(strings.TrimRight(line, " \t"))
}

// isAcceptanceMarker reports whether line opens a scenario list. Any line
// naming the section counts: bold label, heading, or plain text.
func isAcceptanceMarker(line string) bool {
	return strings.Contains(line, acceptanceMarker)
}

// matchScenario tries the explicit-identifier grammar first and falls back
// to the positional grammar. Positional numbering never overrides an
// explicit identifier.
func matchScenario(line string, story int) (types.AcceptanceScenario, bool) {
	if m := explicitScenarioPattern.FindStringSubmatch(line); m != nil {
		s, _ := strconv.Atoi(m[3])
		n, _ := strconv.Atoi(m[4])
		return types.AcceptanceScenario{
			Number:      n,
			Suffix:      m[5],
			ID:          types.ScenarioKey(s, n, m[5]),
			Given:       m[6],
			When:        m[7],
			Then:        m[8],
			StoryNumber: story,
		}, true
	}
	if m := implicitScenarioPattern.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return types.AcceptanceScenario{
			Number:      n,
			ID:          types.ScenarioKey(story, n, ""),
			Given:       m[2],
			When:        m[3],
			Then:        m[4],
			StoryNumber: story,
		}, true
	}
	return types.AcceptanceScenario{}, false
}

// isBoldLabel reports whether line starts with a bold label such as
// "**Why this priority**:".
func isBoldLabel(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "**")
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}
