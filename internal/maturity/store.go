package maturity

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/natefinch/atomic"

	"github.com/theplant/speckit-extension/pkg/types"
)

const fileMode = 0o644

// Store reads and mutates maturity records through a Cache.
type Store struct {
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used for lastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCacheSize bounds the number of cached records.
func WithCacheSize(size int) Option {
	return func(s *Store) {
		s.cache = NewCache(size)
	}
}

// NewStore creates a Store with an empty cache.
func NewStore(opts ...Option) *Store {
	s := &Store{
		cache:  NewCache(DefaultCacheSize),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the store's cache.
func (s *Store) Cache() *Cache {
	return s.cache
}

// Invalidate drops the cached record of the specification at specPath.
// Any path inside the specification directory, including the maturity
// files themselves, names the same record.
func (s *Store) Invalidate(specPath string) {
	s.cache.Invalidate(canonicalKey(specPath))
}

// InvalidateAll drops every cached record.
func (s *Store) InvalidateAll() {
	s.cache.InvalidateAll()
}

// Load returns the record of the specification at specPath, reading it on a
// cache miss. A record present in neither format is empty and reports
// FormatNone. The returned record is a copy.
func (s *Store) Load(specPath string) (Snapshot, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Record = snap.Record.Clone()
	return snap, nil
}

func (s *Store) snapshot(specPath string) (Snapshot, error) {
	key := canonicalKey(specPath)
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}
	current, legacy := Paths(specPath)
	snap, err := s.read(current, legacy)
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Debug("loaded maturity record", "path", snap.Path, "format", snap.Format)
	s.cache.Put(key, snap)
	return snap, nil
}

// read tries the current format, then the legacy one. Only I/O failures
// other than a missing file are returned as errors.
func (s *Store) read(current, legacy string) (Snapshot, error) {
	data, err := os.ReadFile(current)
	switch {
	case err == nil:
		rec, decodeErr := decodeJSON(data)
		if decodeErr == nil {
			return Snapshot{Path: current, Format: FormatJSON, Record: rec}, nil
		}
		s.logger.Warn("maturity file is not valid JSON, trying legacy format", "path", current, "error", decodeErr)
	case !errors.Is(err, fs.ErrNotExist):
		return Snapshot{}, fmt.Errorf("read %s: %w", current, err)
	}

	data, err = os.ReadFile(legacy)
	switch {
	case err == nil:
		return Snapshot{Path: legacy, Format: FormatLegacy, Record: parseLegacy(string(data))}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Snapshot{}, fmt.Errorf("read %s: %w", legacy, err)
	}
	return Snapshot{Path: current, Format: FormatNone, Record: types.NewMaturityRecord()}, nil
}

// ScenarioMaturity returns the stored level of a scenario, or none.
func (s *Store) ScenarioMaturity(specPath, storyKey, scenarioID string) (types.MaturityLevel, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return "", err
	}
	sc := snap.Record.Scenario(storyKey, scenarioID)
	if sc == nil || sc.Level == "" {
		return types.MaturityNone, nil
	}
	return sc.Level, nil
}

// UserStoryMaturity returns min(stored overall, lowest scenario level), or
// none when the story is absent.
func (s *Store) UserStoryMaturity(specPath, storyKey string) (types.MaturityLevel, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return "", err
	}
	story := snap.Record.UserStories[storyKey]
	if story == nil {
		return types.MaturityNone, nil
	}
	return story.Displayed(), nil
}

// TestStatus returns the status recorded for testName. When the name is
// recorded under several scenarios the first in key order wins.
func (s *Store) TestStatus(specPath, testName string) (types.TestStatus, bool, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return "", false, err
	}
	for _, storyKey := range sortedKeys(snap.Record.UserStories) {
		story := snap.Record.UserStories[storyKey]
		for _, id := range sortedKeys(story.Scenarios) {
			for _, t := range story.Scenarios[id].Tests {
				if t.TestName == testName {
					return t.Status, true, nil
				}
			}
		}
	}
	return types.TestUnknown, false, nil
}

// StoryTestsPassed reports whether the story has at least one recorded test
// and every recorded test passed.
func (s *Store) StoryTestsPassed(specPath, storyKey string) (bool, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return false, err
	}
	story := snap.Record.UserStories[storyKey]
	if story == nil {
		return false, nil
	}
	count := 0
	for _, sc := range story.Scenarios {
		for _, t := range sc.Tests {
			if t.Status != types.TestPass {
				return false, nil
			}
			count++
		}
	}
	return count > 0, nil
}

// TestConfig returns the run configuration of the record, or nil.
func (s *Store) TestConfig(specPath string) (*types.TestConfig, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return nil, err
	}
	if snap.Record.TestConfig == nil {
		return nil, nil
	}
	tc := *snap.Record.TestConfig
	return &tc, nil
}

// SetScenarioMaturity stores level for a scenario and recomputes the
// story's overall as the lowest scenario level.
func (s *Store) SetScenarioMaturity(specPath, storyKey, scenarioID string, level types.MaturityLevel) error {
	if err := validateKeys(storyKey, scenarioID); err != nil {
		return err
	}
	if !level.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidLevel, level)
	}
	return s.mutate(specPath, func(rec *types.MaturityRecord) error {
		rec.EnsureScenario(storyKey, scenarioID).Level = level
		rec.UserStories[storyKey].RecomputeOverall()
		return nil
	})
}

// AddOrReplaceTest records entry under a scenario, replacing the entry with
// the same test name. An empty status is stored as unknown.
func (s *Store) AddOrReplaceTest(specPath, storyKey, scenarioID string, entry types.TestEntry) error {
	if err := validateKeys(storyKey, scenarioID); err != nil {
		return err
	}
	if entry.Status == "" {
		entry.Status = types.TestUnknown
	}
	status, err := types.ParseTestStatus(string(entry.Status))
	if err != nil {
		return err
	}
	entry.Status = status
	return s.mutate(specPath, func(rec *types.MaturityRecord) error {
		rec.EnsureScenario(storyKey, scenarioID).SetTest(entry)
		return nil
	})
}

// SetTestStatus stamps every entry named testName with status and the run
// time. Returns types.ErrTestNotFound when no entry has that name.
func (s *Store) SetTestStatus(specPath, testName string, status types.TestStatus, at time.Time) error {
	status, err := types.ParseTestStatus(string(status))
	if err != nil {
		return err
	}
	return s.mutate(specPath, func(rec *types.MaturityRecord) error {
		found := false
		for _, story := range rec.UserStories {
			for _, sc := range story.Scenarios {
				for i := range sc.Tests {
					if sc.Tests[i].TestName == testName {
						sc.Tests[i].Status = status
						sc.Tests[i].LastRun = stamp(at)
						found = true
					}
				}
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", types.ErrTestNotFound, testName)
		}
		return nil
	})
}

// SetScenarioTestsStatus stamps every test recorded under a scenario.
// Returns types.ErrTestNotFound when the scenario has no tests.
func (s *Store) SetScenarioTestsStatus(specPath, storyKey, scenarioID string, status types.TestStatus, at time.Time) error {
	if err := validateKeys(storyKey, scenarioID); err != nil {
		return err
	}
	status, err := types.ParseTestStatus(string(status))
	if err != nil {
		return err
	}
	return s.mutate(specPath, func(rec *types.MaturityRecord) error {
		sc := rec.Scenario(storyKey, scenarioID)
		if sc == nil || len(sc.Tests) == 0 {
			return fmt.Errorf("%w: no tests recorded for %s", types.ErrTestNotFound, scenarioID)
		}
		for i := range sc.Tests {
			sc.Tests[i].Status = status
			sc.Tests[i].LastRun = stamp(at)
		}
		return nil
	})
}

// MigrateLegacy writes a record read from the legacy file as maturity.json.
// The legacy file is left in place. It reports whether a file was written.
func (s *Store) MigrateLegacy(specPath string) (bool, error) {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return false, err
	}
	if snap.Format != FormatLegacy {
		return false, nil
	}
	if err := s.mutate(specPath, func(*types.MaturityRecord) error { return nil }); err != nil {
		return false, err
	}
	return true, nil
}

// mutate applies fn to a copy of the record, writes the result as JSON, and
// replaces the cache entry. A failed fn or write leaves the cache untouched.
func (s *Store) mutate(specPath string, fn func(*types.MaturityRecord) error) error {
	snap, err := s.snapshot(specPath)
	if err != nil {
		return err
	}
	rec := snap.Record.Clone()
	if err := fn(rec); err != nil {
		return err
	}
	rec.LastUpdated = stamp(s.now())

	data, err := encodeJSON(rec)
	if err != nil {
		return err
	}
	current, _ := Paths(specPath)
	_, statErr := os.Stat(current)
	if err := atomic.WriteFile(current, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", current, err)
	}
	// atomic.WriteFile keeps the mode of an existing file; a new one comes
	// from os.CreateTemp with 0600.
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(current, fileMode); err != nil {
			return fmt.Errorf("chmod %s: %w", current, err)
		}
	}
	s.cache.Put(canonicalKey(specPath), Snapshot{Path: current, Format: FormatJSON, Record: rec})
	if snap.Format == FormatLegacy {
		s.logger.Info("migrated legacy maturity record", "from", snap.Path, "to", current)
	}
	return nil
}

// validateKeys checks both identifiers and that the scenario belongs to
// the story.
func validateKeys(storyKey, scenarioID string) error {
	n, err := types.ParseStoryID(storyKey)
	if err != nil {
		return err
	}
	story, _, _, err := types.ParseScenarioID(scenarioID)
	if err != nil {
		return err
	}
	if story != n {
		return fmt.Errorf("%w: %s is not in %s", types.ErrInvalidScenarioID, scenarioID, storyKey)
	}
	return nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
