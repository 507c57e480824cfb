package linker

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/theplant/speckit-extension/pkg/types"
)

// storyPatterns returns the case-insensitive file-name patterns for story n.
func storyPatterns(n int) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`(?i)us%d(?:[^0-9]|$)`, n)),
		regexp.MustCompile(fmt.Sprintf(`(?i)user-story-%d`, n)),
		regexp.MustCompile(fmt.Sprintf(`(?i)story%d`, n)),
	}
}

// MatchesStory reports whether a file name follows a naming convention for
// story n.
func MatchesStory(fileName string, n int) bool {
	for _, p := range storyPatterns(n) {
		if p.MatchString(fileName) {
			return true
		}
	}
	return false
}

// strictStoryMatch reports whether the file name stem is "us<n>" or starts
// with "us<n>-".
func strictStoryMatch(fileName string, n int) bool {
	stem := strings.ToLower(fileName)
	if i := strings.Index(stem, "."); i >= 0 {
		stem = stem[:i]
	}
	prefix := fmt.Sprintf("us%d", n)
	return stem == prefix || strings.HasPrefix(stem, prefix+"-")
}

// rankFiles orders paths for a best-file lookup: strict "us<n>" names first,
// then alphabetical by file name, then by full path.
func rankFiles(paths []string, n int) {
	sort.SliceStable(paths, func(i, j int) bool {
		bi, bj := filepath.Base(paths[i]), filepath.Base(paths[j])
		si, sj := strictStoryMatch(bi, n), strictStoryMatch(bj, n)
		if si != sj {
			return si
		}
		if bi != bj {
			return bi < bj
		}
		return paths[i] < paths[j]
	})
}

// tokenPattern matches token with no letter or digit on either side.
func tokenPattern(token string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + token + `(?:[^a-z0-9]|$)`)
}

// nameMatchesScenario is the naming heuristic used for tests without an
// annotation.
func nameMatchesScenario(name string, story, number int, suffix string) bool {
	if name == "" {
		return false
	}
	as := fmt.Sprintf("%d%s", number, suffix)
	for _, p := range []*regexp.Regexp{
		tokenPattern(fmt.Sprintf(`us%d[-_ ]?as%s`, story, as)),
		tokenPattern(`as` + as),
		tokenPattern(`scenario[-_ ]*` + as),
	} {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// FilterScenario narrows a story's tests to scenarioID. A test with an
// annotation is kept only when the annotation names this feature and
// scenario exactly; a test without one is kept when its name matches the
// scenario by convention. Annotated matches come first. An empty feature
// accepts annotations from any feature.
func FilterScenario(tests []types.IntegrationTest, feature, scenarioID string) []types.IntegrationTest {
	story, number, suffix, err := types.ParseScenarioID(scenarioID)
	if err != nil {
		return nil
	}
	var annotated, named []types.IntegrationTest
	for _, t := range tests {
		if t.Annotation != "" {
			a, ok := ParseAnnotation(t.Annotation)
			if ok && a.Scenario == scenarioID && (feature == "" || a.Feature == feature) {
				annotated = append(annotated, t)
			}
			continue
		}
		if nameMatchesScenario(t.TestName, story, number, suffix) {
			named = append(named, t)
		}
	}
	return append(annotated, named...)
}

// BestScenarioTest returns the most trusted test for scenarioID.
func BestScenarioTest(tests []types.IntegrationTest, feature, scenarioID string) (types.IntegrationTest, bool) {
	matches := FilterScenario(tests, feature, scenarioID)
	if len(matches) == 0 {
		return types.IntegrationTest{}, false
	}
	return matches[0], true
}
