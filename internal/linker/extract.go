package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/theplant/speckit-extension/pkg/types"
)

// maxAnnotationDistance is how many non-blank lines above a declaration are
// searched for an annotation.
const maxAnnotationDistance = 3

var (
	declarationPattern = regexp.MustCompile(`^\s*(?:test|it)(?:\.(?:only|skip|fixme))?\s*\(\s*(?:'([^']*)'|"([^"]*)"|` + "`([^`]*)`" + `)`)
	annotationPattern  = regexp.MustCompile(`@spec:\s*([^\s/]+)/(US\d+-AS\d+[a-z]?)`)
)

// Annotation is a parsed "@spec: <feature>/<scenario>" reference.
type Annotation struct {
	Feature  string
	Scenario string
}

// String returns the "<feature>/<scenario>" form stored on IntegrationTest.
func (a Annotation) String() string {
	return a.Feature + "/" + a.Scenario
}

// ParseAnnotation parses an annotation value or a comment line holding one.
func ParseAnnotation(s string) (Annotation, bool) {
	m := annotationPattern.FindStringSubmatch(s)
	if m == nil {
		if m = annotationPattern.FindStringSubmatch("@spec: " + s); m == nil {
			return Annotation{}, false
		}
	}
	return Annotation{Feature: m[1], Scenario: m[2]}, true
}

// ExtractTests reads the file at path and returns its test declarations.
func ExtractTests(path string) ([]types.IntegrationTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test file %s: %w", path, err)
	}
	return extract(path, string(data)), nil
}

// extract returns one IntegrationTest per declaration found at the start of
// a line outside template literals. A file without declarations yields a
// single record carrying only its path.
func extract(path, content string) []types.IntegrationTest {
	lines := strings.Split(content, "\n")
	name := filepath.Base(path)

	var tests []types.IntegrationTest
	var declLines []int
	inTemplate := false
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if !inTemplate {
			if m := declarationPattern.FindStringSubmatch(line); m != nil {
				t := types.IntegrationTest{
					FilePath: path,
					FileName: name,
					TestName: m[1] + m[2] + m[3],
					Line:     i + 1,
				}
				if a, ok := annotationAbove(lines, i, declLines); ok {
					t.Annotation = a.String()
				}
				tests = append(tests, t)
				declLines = append(declLines, i)
			}
		}
		if strings.Count(line, "`")%2 == 1 {
			inTemplate = !inTemplate
		}
	}

	if len(tests) == 0 {
		return []types.IntegrationTest{{FilePath: path, FileName: name}}
	}
	return tests
}

// annotationAbove scans up to maxAnnotationDistance non-blank lines above
// index decl, stopping at an earlier declaration.
func annotationAbove(lines []string, decl int, declLines []int) (Annotation, bool) {
	isDecl := make(map[int]bool, len(declLines))
	for _, d := range declLines {
		isDecl[d] = true
	}
	seen := 0
	for j := decl - 1; j >= 0 && seen < maxAnnotationDistance; j-- {
		if isDecl[j] {
			break
		}
		line := strings.TrimSpace(lines[j])
		if line == "" {
			continue
		}
		seen++
		if m := annotationPattern.FindStringSubmatch(line); m != nil {
			return Annotation{Feature: m[1], Scenario: m[2]}, true
		}
	}
	return Annotation{}, false
}
