package specdoc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/theplant/speckit-extension/pkg/types"
)

// Document names inside a feature directory.
const (
	SpecFileName = "spec.md"
	PlanFileName = "plan.md"
)

// Parse builds a FeatureSpec from the text of the document at specPath.
// It never fails: content that does not follow the story grammar is
// skipped. Parse does not touch the file system.
func Parse(specPath, content string) *types.FeatureSpec {
	dir := filepath.Dir(specPath)
	name := filepath.Base(dir)

	feature := &types.FeatureSpec{
		Dir:         dir,
		Name:        name,
		DisplayName: DisplayName(name),
		Number:      FeatureNumber(name),
		SpecPath:    specPath,
	}

	m := newMachine(name)
	for i, line := range splitLines(content) {
		m.step(i+1, line)
	}
	feature.Stories = m.finish()
	return feature
}

// ParseFile reads and parses the document at path. The only error returned
// is a *types.ParseError wrapping the I/O failure.
func ParseFile(path string) (*types.FeatureSpec, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &types.ParseError{Path: abs, Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &types.ParseError{Path: abs, Err: err}
	}

	feature := Parse(abs, string(data))
	feature.ModTime = info.ModTime()

	plan := filepath.Join(feature.Dir, PlanFileName)
	if _, err := os.Stat(plan); err == nil {
		feature.PlanPath = plan
	}
	return feature, nil
}

// splitLines splits on "\n", drops a trailing "\r" from each line, and
// ignores the empty element after a final newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
