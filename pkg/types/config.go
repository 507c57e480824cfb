package types

import "errors"

// Default configuration values.
const (
	DefaultSpecsDir = "specs"
	DefaultTestDir  = "tests"
)

// DefaultTestPatterns selects JavaScript and TypeScript test sources.
var DefaultTestPatterns = []string{
	"**/*.{spec,test}.{ts,tsx,js,jsx,mjs,cjs}",
}

// Config locates the specification tree and the test sources linked to it.
type Config struct {
	SpecsDir      string   `json:"specs_dir" yaml:"specs_dir"`
	WorkspaceRoot string   `json:"workspace_root" yaml:"workspace_root"`
	TestDir       string   `json:"test_dir" yaml:"test_dir"`
	TestPatterns  []string `json:"test_patterns" yaml:"test_patterns"`
	DataDir       string   `json:"data_dir" yaml:"data_dir"`
}

// Config validation errors.
var (
	ErrSpecsDirEmpty      = errors.New("specs directory must not be empty")
	ErrWorkspaceRootEmpty = errors.New("workspace root must not be empty")
)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.SpecsDir == "" {
		return ErrSpecsDirEmpty
	}
	if c.WorkspaceRoot == "" {
		return ErrWorkspaceRootEmpty
	}
	return nil
}

// Patterns returns the configured test globs, or DefaultTestPatterns when
// none are set.
func (c Config) Patterns() []string {
	if len(c.TestPatterns) == 0 {
		return DefaultTestPatterns
	}
	return c.TestPatterns
}

// TestRoot returns the configured test-search directory, or DefaultTestDir.
func (c Config) TestRoot() string {
	if c.TestDir == "" {
		return DefaultTestDir
	}
	return c.TestDir
}
