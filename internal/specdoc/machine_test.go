package specdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func openMachine() *machine {
	m := newMachine("001-x")
	m.step(1, "### User Story 1 - Open (Priority: P1)")
	return m
}

func TestMachine_HeadingOpensStoryFromAnyState(t *testing.T) {
	for _, s := range []state{stateOutsideStory, stateStoryPreamble, stateAcceptance} {
		t.Run(s.String(), func(t *testing.T) {
			m := openMachine()
			m.state = s
			m.step(5, "### User Story 2 - Next (Priority: P2)")

			assert.Equal(t, stateStoryPreamble, m.state)
			assert.Len(t, m.stories, 2)
			assert.Equal(t, 4, m.stories[0].EndLine)
		})
	}
}

func TestMachine_StepOutside(t *testing.T) {
	m := newMachine("001-x")
	assert.Equal(t, stateOutsideStory, m.stepOutside("**Acceptance Scenarios**:"), "no open story")

	m = openMachine()
	assert.Equal(t, stateAcceptance, m.stepOutside("**Acceptance Scenarios - More**:"))
	assert.Equal(t, stateAcceptance, m.stepOutside("Acceptance Scenarios:"))
	assert.Equal(t, stateOutsideStory, m.stepOutside("plain text"))
}

func TestMachine_StepPreamble(t *testing.T) {
	m := openMachine()

	assert.Equal(t, stateStoryPreamble, m.stepPreamble("**Priority note** bold lines are not descriptions"))
	assert.Equal(t, stateStoryPreamble, m.stepPreamble("First paragraph."))
	assert.Equal(t, stateStoryPreamble, m.stepPreamble("Second paragraph."))
	assert.Equal(t, stateStoryPreamble, m.stepPreamble("**Why this priority:** core flow"))
	assert.Equal(t, stateStoryPreamble, m.stepPreamble("**Independent Test**: run it alone"))
	assert.Equal(t, stateAcceptance, m.stepPreamble("**Acceptance Scenarios**:"))
	assert.Equal(t, stateOutsideStory, m.stepPreamble("----"))

	cur := m.current()
	assert.Equal(t, "First paragraph.", cur.Description)
	assert.Equal(t, "core flow", cur.WhyPriority)
	assert.Equal(t, "run it alone", cur.IndependentTest)
}

func TestMachine_StepAcceptance(t *testing.T) {
	m := openMachine()

	assert.Equal(t, stateAcceptance, m.stepAcceptance(3, "1. **Given** a, **When** b, **Then** c"))
	assert.Equal(t, stateAcceptance, m.stepAcceptance(4, "not a scenario"))
	assert.Equal(t, stateAcceptance, m.stepAcceptance(5, "**Acceptance Scenarios - Errors**:"))
	assert.Equal(t, stateOutsideStory, m.stepAcceptance(6, "---"))

	assert.Len(t, m.current().Scenarios, 1)
	assert.Equal(t, 3, m.current().Scenarios[0].Line)
}

func TestMachine_FinishWithoutStories(t *testing.T) {
	m := newMachine("001-x")
	m.step(1, "text")
	stories := m.finish()
	assert.NotNil(t, stories)
	assert.Empty(t, stories)
}

func TestIsRule(t *testing.T) {
	assert.True(t, isRule("---"))
	assert.True(t, isRule("------  "))
	assert.False(t, isRule("--"))
	assert.False(t, isRule("--- x"))
	assert.False(t, isRule(" - item"))
}
