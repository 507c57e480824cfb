package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplant/speckit-extension/pkg/types"
)

func TestMatchesStory(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want bool
	}{
		{"us1-login.spec.ts", 1, true},
		{"US1.spec.ts", 1, true},
		{"login-us1.spec.ts", 1, true},
		{"us12-login.spec.ts", 1, false},
		{"us12-login.spec.ts", 12, true},
		{"checkoutUs1.spec.ts", 1, true},
		{"focus12.spec.ts", 1, false},
		{"user-story-3.spec.ts", 3, true},
		{"User-Story-3-reset.spec.ts", 3, true},
		{"story2.test.js", 2, true},
		{"loginStory2.spec.ts", 2, true},
		{"userstory2.spec.ts", 2, true},
		{"story3.test.js", 2, false},
		{"login.spec.ts", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesStory(tt.name, tt.n))
		})
	}
}

func TestRankFiles(t *testing.T) {
	paths := []string{
		"/t/b/login-us1.spec.ts",
		"/t/user-story-1.spec.ts",
		"/t/z/us1-zeta.spec.ts",
		"/t/a/us1-alpha.spec.ts",
		"/t/us1.spec.ts",
	}
	rankFiles(paths, 1)
	assert.Equal(t, []string{
		"/t/a/us1-alpha.spec.ts",
		"/t/z/us1-zeta.spec.ts",
		"/t/us1.spec.ts",
		"/t/b/login-us1.spec.ts",
		"/t/user-story-1.spec.ts",
	}, paths)
}

func TestFilterScenario_AnnotationBeatsNaming(t *testing.T) {
	tests := []types.IntegrationTest{
		{FilePath: "/t/us1-a.spec.ts", TestName: "US1-AS2 shows dashboard"},
		{FilePath: "/t/us1-b.spec.ts", TestName: "dashboard", Annotation: "001-x/US1-AS2"},
	}
	got := FilterScenario(tests, "001-x", "US1-AS2")
	require.Len(t, got, 2)
	assert.Equal(t, "/t/us1-b.spec.ts", got[0].FilePath, "annotated test ranks first")

	best, ok := BestScenarioTest(tests, "001-x", "US1-AS2")
	require.True(t, ok)
	assert.Equal(t, "001-x/US1-AS2", best.Annotation)
}

func TestFilterScenario_AnnotationIsAuthoritative(t *testing.T) {
	tests := []types.IntegrationTest{
		{TestName: "US1-AS2 name says two", Annotation: "001-x/US1-AS3"},
		{TestName: "US1-AS2 other feature", Annotation: "002-y/US1-AS2"},
	}
	assert.Empty(t, FilterScenario(tests, "001-x", "US1-AS2"))
	assert.Len(t, FilterScenario(tests, "", "US1-AS2"), 1)
}

func TestFilterScenario_NamingHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		want     bool
	}{
		{"US1-AS2: logs in", "US1-AS2", true},
		{"us1_as2 logs in", "US1-AS2", true},
		{"AS2 logs in", "US1-AS2", true},
		{"Scenario 2 - logs in", "US1-AS2", true},
		{"AS12 logs in", "US1-AS1", false},
		{"AS1a logs in", "US1-AS1", false},
		{"AS1a logs in", "US1-AS1a", true},
		{"CLASS2 is not a token", "US1-AS2", false},
		{"", "US1-AS1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.scenario, func(t *testing.T) {
			got := FilterScenario([]types.IntegrationTest{{TestName: tt.name}}, "001-x", tt.scenario)
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestFilterScenario_InvalidID(t *testing.T) {
	assert.Nil(t, FilterScenario([]types.IntegrationTest{{TestName: "AS1"}}, "", "bogus"))
	_, ok := BestScenarioTest(nil, "", "US1-AS1")
	assert.False(t, ok)
}
