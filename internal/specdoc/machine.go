package specdoc

import (
	"strings"

	"github.com/theplant/speckit-extension/pkg/types"
)

// state is the position of the line scanner relative to story sections.
type state int

const (
	stateOutsideStory state = iota
	stateStoryPreamble
	stateAcceptance
)

func (s state) String() string {
	switch s {
	case stateOutsideStory:
		return "outside-story"
	case stateStoryPreamble:
		return "story-preamble"
	case stateAcceptance:
		return "acceptance-scenarios"
	default:
		return "unknown"
	}
}

// machine accumulates stories while lines are fed to step. A story stays
// open until the next story heading or finish, whatever the state.
type machine struct {
	feature  string
	state    state
	stories  []types.UserStory
	open     bool
	lastLine int
	seen     map[string]bool
}

func newMachine(feature string) *machine {
	return &machine{feature: feature, seen: make(map[string]bool)}
}

// step feeds one 1-indexed line to the machine.
func (m *machine) step(lineNo int, line string) {
	m.lastLine = lineNo
	if h, ok := matchStoryHeading(line); ok {
		m.openStory(lineNo, h)
		return
	}
	switch m.state {
	case stateOutsideStory:
		m.state = m.stepOutside(line)
	case stateStoryPreamble:
		m.state = m.stepPreamble(line)
	case stateAcceptance:
		m.state = m.stepAcceptance(lineNo, line)
	}
}

// finish closes the open story at the last line scanned and returns the
// stories in document order.
func (m *machine) finish() []types.UserStory {
	m.closeStory(m.lastLine)
	if m.stories == nil {
		return []types.UserStory{}
	}
	return m.stories
}

func (m *machine) openStory(lineNo int, h storyHeading) {
	m.closeStory(lineNo - 1)
	m.stories = append(m.stories, types.UserStory{
		Number:    h.number,
		Title:     h.title,
		Priority:  h.priority,
		StartLine: lineNo,
		EndLine:   lineNo,
		Scenarios: []types.AcceptanceScenario{},
		Feature:   m.feature,
	})
	m.open = true
	m.state = stateStoryPreamble
}

func (m *machine) closeStory(endLine int) {
	if !m.open {
		return
	}
	cur := m.current()
	if endLine < cur.StartLine {
		endLine = cur.StartLine
	}
	cur.EndLine = endLine
	m.open = false
}

func (m *machine) current() *types.UserStory {
	return &m.stories[len(m.stories)-1]
}

// stepOutside scans between sections. A rule leaves the story open, so a
// later acceptance subsection still belongs to it.
func (m *machine) stepOutside(line string) state {
	if m.open && isAcceptanceMarker(line) {
		return stateAcceptance
	}
	return stateOutsideStory
}

func (m *machine) stepPreamble(line string) state {
	if isRule(line) {
		return stateOutsideStory
	}
	if isAcceptanceMarker(line) {
		return stateAcceptance
	}
	cur := m.current()
	trimmed := strings.TrimSpace(line)
	if match := whyPriorityPattern.FindStringSubmatch(trimmed); match != nil {
		cur.WhyPriority = strings.TrimSpace(match[1])
		return stateStoryPreamble
	}
	if match := independentTestPattern.FindStringSubmatch(trimmed); match != nil {
		cur.IndependentTest = strings.TrimSpace(match[1])
		return stateStoryPreamble
	}
	if cur.Description == "" && trimmed != "" && !isBoldLabel(trimmed) && !isHeading(trimmed) {
		cur.Description = trimmed
	}
	return stateStoryPreamble
}

func (m *machine) stepAcceptance(lineNo int, line string) state {
	if isRule(line) {
		return stateOutsideStory
	}
	cur := m.current()
	sc, ok := matchScenario(line, cur.Number)
	if !ok {
		return stateAcceptance
	}
	if m.seen[sc.ID] {
		return stateAcceptance
	}
	m.seen[sc.ID] = true
	sc.Line = lineNo
	cur.Scenarios = append(cur.Scenarios, sc)
	return stateAcceptance
}
