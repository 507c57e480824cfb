package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/theplant/speckit-extension/pkg/types"
)

// TestFile is a discovered test source and the declarations found in it.
type TestFile struct {
	Path  string
	Name  string
	Tests []types.IntegrationTest
}

// Linker discovers test sources matching a set of doublestar patterns.
type Linker struct {
	patterns []string
	logger   *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithPatterns sets the globs, relative to the search directory, that
// select test sources.
func WithPatterns(patterns ...string) Option {
	return func(l *Linker) {
		if len(patterns) > 0 {
			l.patterns = patterns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Linker using types.DefaultTestPatterns unless overridden.
func New(opts ...Option) *Linker {
	l := &Linker{
		patterns: types.DefaultTestPatterns,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SearchDir joins the workspace root and the configured test directory. An
// absolute testDir is used as is.
func SearchDir(root, testDir string) string {
	if filepath.IsAbs(testDir) {
		return testDir
	}
	return filepath.Join(root, testDir)
}

// Files returns the sorted absolute paths of test sources under dir.
// node_modules and dot-directories are skipped. A missing dir yields no
// files and no error.
func (l *Linker) Files(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat test directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range l.patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if skipped(m) || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}
	sort.Strings(files)
	return files, nil
}

// skipped reports whether a slash-separated relative path crosses
// node_modules or a dot-directory.
func skipped(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if p == "node_modules" || strings.HasPrefix(p, ".") {
			return true
		}
	}
	return false
}

// Scan discovers and extracts every test source under root/testDir.
func (l *Linker) Scan(root, testDir string) ([]TestFile, error) {
	dir := SearchDir(root, testDir)
	paths, err := l.Files(dir)
	if err != nil {
		return nil, err
	}
	files := make([]TestFile, 0, len(paths))
	for _, p := range paths {
		tests, err := ExtractTests(p)
		if err != nil {
			return nil, err
		}
		files = append(files, TestFile{Path: p, Name: filepath.Base(p), Tests: tests})
	}
	l.logger.Debug("scanned test sources", "dir", dir, "files", len(files))
	return files, nil
}

// ForStory selects the tests of files associated with story n of feature:
// files whose name matches a story naming convention, plus files holding an
// annotation for "<feature>/US<n>-". Files keep their scan order.
func ForStory(files []TestFile, feature string, n int) []types.IntegrationTest {
	var out []types.IntegrationTest
	for _, f := range files {
		if MatchesStory(f.Name, n) || annotatesStory(f, feature, n) {
			out = append(out, f.Tests...)
		}
	}
	return out
}

func annotatesStory(f TestFile, feature string, n int) bool {
	prefix := types.StoryKey(n) + "-"
	for _, t := range f.Tests {
		if t.Annotation == "" {
			continue
		}
		a, ok := ParseAnnotation(t.Annotation)
		if ok && a.Feature == feature && strings.HasPrefix(a.Scenario, prefix) {
			return true
		}
	}
	return false
}

// StoryTests returns the tests under root/testDir associated with story n
// of feature. A missing directory yields an empty result.
func (l *Linker) StoryTests(root, testDir, feature string, n int) ([]types.IntegrationTest, error) {
	files, err := l.Scan(root, testDir)
	if err != nil {
		return nil, err
	}
	return ForStory(files, feature, n), nil
}

// BestTestFile returns the single most representative test file for story
// n: a strict "us<n>" name wins over a name merely containing the pattern,
// then names sort alphabetically.
func (l *Linker) BestTestFile(root, testDir string, n int) (string, bool, error) {
	paths, err := l.Files(SearchDir(root, testDir))
	if err != nil {
		return "", false, err
	}
	var candidates []string
	for _, p := range paths {
		if MatchesStory(filepath.Base(p), n) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", false, nil
	}
	rankFiles(candidates, n)
	return candidates[0], true, nil
}
