// Package workspace ties the parser, linker, metadata and maturity stores
// together for one project: it refreshes the feature tree with linked tests
// and records test run outcomes.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/theplant/speckit-extension/internal/linker"
	"github.com/theplant/speckit-extension/internal/maturity"
	"github.com/theplant/speckit-extension/internal/metadata"
	"github.com/theplant/speckit-extension/internal/specdoc"
	"github.com/theplant/speckit-extension/pkg/types"
)

// Workspace is a project checkout: a specification tree and the test
// sources linked to it.
type Workspace struct {
	cfg    types.Config
	linker *linker.Linker
	store  *maturity.Store
	logger *slog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithStore replaces the maturity store, e.g. to share its cache with a
// watcher.
func WithStore(store *maturity.Store) Option {
	return func(w *Workspace) {
		if store != nil {
			w.store = store
		}
	}
}

// New validates cfg and creates a Workspace.
func New(cfg types.Config, opts ...Option) (*Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if root, err := filepath.Abs(cfg.WorkspaceRoot); err == nil {
		cfg.WorkspaceRoot = root
	}
	w := &Workspace{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	if w.store == nil {
		w.store = maturity.NewStore(maturity.WithLogger(w.logger))
	}
	w.linker = linker.New(
		linker.WithPatterns(cfg.Patterns()...),
		linker.WithLogger(w.logger),
	)
	return w, nil
}

// Config returns the workspace configuration.
func (w *Workspace) Config() types.Config {
	return w.cfg
}

// Store returns the maturity store.
func (w *Workspace) Store() *maturity.Store {
	return w.store
}

// Linker returns the test linker.
func (w *Workspace) Linker() *linker.Linker {
	return w.linker
}

// SpecsRoot returns the directory holding feature directories.
func (w *Workspace) SpecsRoot() string {
	if filepath.IsAbs(w.cfg.SpecsDir) {
		return w.cfg.SpecsDir
	}
	return filepath.Join(w.cfg.WorkspaceRoot, w.cfg.SpecsDir)
}

// Refresh parses every feature and links test declarations to its
// scenarios. Test directories shared by several features are scanned once.
func (w *Workspace) Refresh() ([]types.FeatureSpec, error) {
	features, err := specdoc.ParseFeatures(w.SpecsRoot())
	if err != nil {
		return nil, err
	}
	scans := make(map[string][]linker.TestFile)
	for i := range features {
		if err := w.link(&features[i], scans); err != nil {
			return nil, err
		}
	}
	w.logger.Debug("refreshed features", "root", w.SpecsRoot(), "features", len(features))
	return features, nil
}

// Feature refreshes the tree and returns the feature named ref, by
// directory name or number. Returns types.ErrFeatureNotFound otherwise.
func (w *Workspace) Feature(ref string) (*types.FeatureSpec, error) {
	features, err := w.Refresh()
	if err != nil {
		return nil, err
	}
	f, ok := specdoc.FindFeature(features, ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrFeatureNotFound, ref)
	}
	return f, nil
}

// TestRoot returns the test directory for the specification at specPath:
// its testDirectory header when present, else the configured directory.
func (w *Workspace) TestRoot(specPath string) (string, error) {
	dir, ok, err := metadata.ReadTestDirectory(specPath)
	if err != nil {
		return "", err
	}
	if ok && dir != "" {
		return dir, nil
	}
	return w.cfg.TestRoot(), nil
}

// SetTestRoot stores dir as the testDirectory header of the specification
// at specPath. An empty dir removes the header.
func (w *Workspace) SetTestRoot(specPath, dir string) error {
	if err := metadata.WriteTestDirectory(specPath, dir); err != nil {
		return err
	}
	w.logger.Info("test directory updated", "spec", specPath, "dir", dir)
	return nil
}

// StoryTests returns the tests linked to story n of f.
func (w *Workspace) StoryTests(f *types.FeatureSpec, n int) ([]types.IntegrationTest, error) {
	testDir, err := w.TestRoot(f.SpecPath)
	if err != nil {
		return nil, err
	}
	return w.linker.StoryTests(w.cfg.WorkspaceRoot, testDir, f.Name, n)
}

// BestTestFile returns the most representative test file for story n of f.
func (w *Workspace) BestTestFile(f *types.FeatureSpec, n int) (string, bool, error) {
	testDir, err := w.TestRoot(f.SpecPath)
	if err != nil {
		return "", false, err
	}
	return w.linker.BestTestFile(w.cfg.WorkspaceRoot, testDir, n)
}

func (w *Workspace) link(f *types.FeatureSpec, scans map[string][]linker.TestFile) error {
	testDir, err := w.TestRoot(f.SpecPath)
	if err != nil {
		return err
	}
	dir := linker.SearchDir(w.cfg.WorkspaceRoot, testDir)
	files, ok := scans[dir]
	if !ok {
		files, err = w.linker.Scan(w.cfg.WorkspaceRoot, testDir)
		if err != nil {
			return err
		}
		scans[dir] = files
	}

	for i := range f.Stories {
		story := &f.Stories[i]
		storyTests := linker.ForStory(files, f.Name, story.Number)
		for j := range story.Scenarios {
			sc := &story.Scenarios[j]
			matched := linker.FilterScenario(storyTests, f.Name, sc.ID)
			for k := range matched {
				matched[k].ScenarioID = sc.ID
			}
			sc.Tests = matched
		}
	}
	return nil
}

// StoryLevel returns the displayed maturity of a story.
func (w *Workspace) StoryLevel(specPath, storyKey string) (types.MaturityLevel, error) {
	return w.store.UserStoryMaturity(specPath, storyKey)
}

// ScenarioLevel returns the stored maturity of a scenario.
func (w *Workspace) ScenarioLevel(specPath, storyKey, scenarioID string) (types.MaturityLevel, error) {
	return w.store.ScenarioMaturity(specPath, storyKey, scenarioID)
}

// RecordRun stores the outcome of a test run against the specification at
// specPath. Exit code 0 records pass, anything else fail. identifier is a
// scenario id ("US1-AS2"), stamping every test of that scenario, or a test
// name. Tests not yet recorded are added from the linked declarations.
func (w *Workspace) RecordRun(specPath, identifier string, exitCode int, at time.Time) error {
	status := types.StatusFromExitCode(exitCode)

	if storyKey, err := types.StoryOfScenario(identifier); err == nil {
		err := w.store.SetScenarioTestsStatus(specPath, storyKey, identifier, status, at)
		if !errors.Is(err, types.ErrTestNotFound) {
			return err
		}
		return w.seedScenario(specPath, storyKey, identifier, status, at)
	}

	err := w.store.SetTestStatus(specPath, identifier, status, at)
	if !errors.Is(err, types.ErrTestNotFound) {
		return err
	}
	return w.seedTest(specPath, identifier, status, at)
}

// seedScenario records every linked test of a scenario with status.
func (w *Workspace) seedScenario(specPath, storyKey, scenarioID string, status types.TestStatus, at time.Time) error {
	f, err := w.linkedFeature(specPath)
	if err != nil {
		return err
	}
	sc, ok := f.Scenario(scenarioID)
	if !ok || len(sc.Tests) == 0 {
		return fmt.Errorf("%w: no tests linked to %s", types.ErrTestNotFound, scenarioID)
	}
	for _, t := range sc.Tests {
		if err := w.store.AddOrReplaceTest(specPath, storyKey, scenarioID, w.entry(t, status, at)); err != nil {
			return err
		}
	}
	return nil
}

// seedTest records the linked test named testName under its scenario.
func (w *Workspace) seedTest(specPath, testName string, status types.TestStatus, at time.Time) error {
	f, err := w.linkedFeature(specPath)
	if err != nil {
		return err
	}
	for _, story := range f.Stories {
		for _, sc := range story.Scenarios {
			for _, t := range sc.Tests {
				if t.TestName != testName {
					continue
				}
				return w.store.AddOrReplaceTest(specPath, story.ID(), sc.ID, w.entry(t, status, at))
			}
		}
	}
	return fmt.Errorf("%w: %q", types.ErrTestNotFound, testName)
}

func (w *Workspace) linkedFeature(specPath string) (*types.FeatureSpec, error) {
	f, err := specdoc.ParseFile(specPath)
	if err != nil {
		return nil, err
	}
	if err := w.link(f, make(map[string][]linker.TestFile)); err != nil {
		return nil, err
	}
	return f, nil
}

// entry converts a linked declaration to a maturity test entry. File paths
// are stored relative to the workspace root when possible.
func (w *Workspace) entry(t types.IntegrationTest, status types.TestStatus, at time.Time) types.TestEntry {
	path := t.FilePath
	if rel, err := filepath.Rel(w.cfg.WorkspaceRoot, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		path = filepath.ToSlash(rel)
	}
	return types.TestEntry{
		FilePath: path,
		TestName: t.TestName,
		Status:   status,
		LastRun:  at.UTC().Format(time.RFC3339),
	}
}
