package maturity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theplant/speckit-extension/pkg/types"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(WithClock(func() time.Time { return fixedNow }))
}

func specIn(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.md")
	require.NoError(t, os.WriteFile(path, []byte("# Feature\n"), 0o644))
	return path
}

func readRecord(t *testing.T, specPath string) *types.MaturityRecord {
	t.Helper()
	current, _ := Paths(specPath)
	data, err := os.ReadFile(current)
	require.NoError(t, err)
	var rec types.MaturityRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	return &rec
}

func TestStoreMissingFileReadsAsNone(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	snap, err := s.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, FormatNone, snap.Format)

	level, err := s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityNone, level)

	level, err = s.UserStoryMaturity(spec, "US1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityNone, level)

	_, err = os.Stat(filepath.Join(filepath.Dir(spec), FileName))
	assert.True(t, os.IsNotExist(err), "reads never create files")
}

func TestStoreSetScenarioMaturityCreatesRecord(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityComplete))

	rec := readRecord(t, spec)
	assert.Equal(t, "2024-03-01T12:00:00Z", rec.LastUpdated)
	require.Contains(t, rec.UserStories, "US1")
	assert.Equal(t, types.MaturityComplete, rec.UserStories["US1"].Overall)
	assert.Equal(t, types.MaturityComplete, rec.UserStories["US1"].Scenarios["US1-AS1"].Level)
	assert.Empty(t, rec.UserStories["US1"].Scenarios["US1-AS1"].Tests)

	snap, err := s.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, snap.Format)

	info, err := os.Stat(filepath.Join(filepath.Dir(spec), FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStoreWriteKeepsExistingMode(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	current, _ := Paths(spec)
	require.NoError(t, os.WriteFile(current, []byte(`{"userStories":{}}`), 0o640))
	require.NoError(t, os.Chmod(current, 0o640))

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityPartial))

	info, err := os.Stat(current)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestStoreSetScenarioMaturityIsIdempotent(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	current, _ := Paths(spec)

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityPartial))
	first, err := os.ReadFile(current)
	require.NoError(t, err)

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityPartial))
	second, err := os.ReadFile(current)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestStoreStoryAggregatesLowestScenario(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityComplete))
	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS2", types.MaturityPartial))

	level, err := s.UserStoryMaturity(spec, "US1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityPartial, level)

	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS2", types.MaturityComplete))
	level, err = s.UserStoryMaturity(spec, "US1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityComplete, level)
}

func TestStoreDisplayedLevelNeverExceedsScenarios(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	current, _ := Paths(spec)
	require.NoError(t, os.WriteFile(current, []byte(`{
  "lastUpdated": "2024-01-01T00:00:00Z",
  "userStories": {
    "US1": {"overall": "complete", "scenarios": {"US1-AS1": {"level": "none", "tests": []}}}
  }
}`), 0o644))

	level, err := s.UserStoryMaturity(spec, "US1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityNone, level)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	err := s.SetScenarioMaturity(spec, "US1", "US1-AS1", "done")
	assert.ErrorIs(t, err, types.ErrInvalidLevel)

	err = s.SetScenarioMaturity(spec, "story1", "US1-AS1", types.MaturityNone)
	assert.ErrorIs(t, err, types.ErrInvalidStoryID)

	err = s.SetScenarioMaturity(spec, "US1", "AS1", types.MaturityNone)
	assert.ErrorIs(t, err, types.ErrInvalidScenarioID)

	err = s.SetScenarioMaturity(spec, "US1", "US2-AS1", types.MaturityNone)
	assert.ErrorIs(t, err, types.ErrInvalidScenarioID)

	err = s.AddOrReplaceTest(spec, "US1", "US1-AS1", types.TestEntry{TestName: "t", Status: "flaky"})
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestStoreTests(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	require.NoError(t, s.AddOrReplaceTest(spec, "US1", "US1-AS1", types.TestEntry{
		FilePath: "tests/cart.spec.ts", TestName: "creates a cart",
	}))
	status, found, err := s.TestStatus(spec, "creates a cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, types.TestUnknown, status)

	passed, err := s.StoryTestsPassed(spec, "US1")
	require.NoError(t, err)
	assert.False(t, passed)

	require.NoError(t, s.SetTestStatus(spec, "creates a cart", types.TestPass, fixedNow.Add(time.Hour)))
	status, _, err = s.TestStatus(spec, "creates a cart")
	require.NoError(t, err)
	assert.Equal(t, types.TestPass, status)

	rec := readRecord(t, spec)
	entry := rec.UserStories["US1"].Scenarios["US1-AS1"].Tests[0]
	assert.Equal(t, "2024-03-01T13:00:00Z", entry.LastRun)
	assert.Equal(t, "tests/cart.spec.ts", entry.FilePath)

	passed, err = s.StoryTestsPassed(spec, "US1")
	require.NoError(t, err)
	assert.True(t, passed)

	require.NoError(t, s.AddOrReplaceTest(spec, "US1", "US1-AS1", types.TestEntry{
		FilePath: "tests/cart2.spec.ts", TestName: "creates a cart", Status: types.TestFail,
	}))
	rec = readRecord(t, spec)
	require.Len(t, rec.UserStories["US1"].Scenarios["US1-AS1"].Tests, 1)
	assert.Equal(t, "tests/cart2.spec.ts", rec.UserStories["US1"].Scenarios["US1-AS1"].Tests[0].FilePath)

	_, found, err = s.TestStatus(spec, "unknown test")
	require.NoError(t, err)
	assert.False(t, found)

	err = s.SetTestStatus(spec, "unknown test", types.TestPass, fixedNow)
	assert.ErrorIs(t, err, types.ErrTestNotFound)
}

func TestStoreSetScenarioTestsStatus(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	err := s.SetScenarioTestsStatus(spec, "US1", "US1-AS1", types.TestPass, fixedNow)
	assert.ErrorIs(t, err, types.ErrTestNotFound)

	for _, name := range []string{"a", "b"} {
		require.NoError(t, s.AddOrReplaceTest(spec, "US1", "US1-AS1", types.TestEntry{TestName: name}))
	}
	require.NoError(t, s.SetScenarioTestsStatus(spec, "US1", "US1-AS1", types.TestFail, fixedNow))

	for _, name := range []string{"a", "b"} {
		status, found, err := s.TestStatus(spec, name)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, types.TestFail, status)
	}
}

func TestStoreLegacyFallbackAndMigration(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	current, legacy := Paths(spec)
	require.NoError(t, os.WriteFile(legacy, []byte(legacySample), 0o644))

	snap, err := s.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, FormatLegacy, snap.Format)
	assert.Equal(t, legacy, snap.Path)

	level, err := s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityComplete, level)

	migrated, err := s.MigrateLegacy(spec)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.FileExists(t, current)
	assert.FileExists(t, legacy)

	snap, err = s.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, snap.Format)

	migrated, err = s.MigrateLegacy(spec)
	require.NoError(t, err)
	assert.False(t, migrated)
}

func TestStoreMalformedJSONFallsBackToLegacy(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	current, legacy := Paths(spec)
	require.NoError(t, os.WriteFile(current, []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(legacy, []byte(legacySample), 0o644))

	snap, err := s.Load(spec)
	require.NoError(t, err)
	assert.Equal(t, FormatLegacy, snap.Format)
}

func TestStoreServesFromCacheUntilInvalidated(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityPartial))

	current, _ := Paths(spec)
	require.NoError(t, os.WriteFile(current, []byte(`{"lastUpdated":"","userStories":{"US1":{"overall":"complete","scenarios":{"US1-AS1":{"level":"complete","tests":[]}}}}}`), 0o644))

	level, err := s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityPartial, level)

	s.Invalidate(current)
	level, err = s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityComplete, level)
}

func TestStoreFailedWriteKeepsCache(t *testing.T) {
	s := newTestStore()
	spec := filepath.Join(t.TempDir(), "gone", "spec.md")

	_, err := s.Load(spec)
	require.NoError(t, err)
	mods := s.Cache().Mods()

	err = s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityComplete)
	require.Error(t, err)
	assert.Equal(t, mods, s.Cache().Mods())

	level, err := s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityNone, level)
}

func TestStoreLoadReturnsCopy(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)
	require.NoError(t, s.SetScenarioMaturity(spec, "US1", "US1-AS1", types.MaturityPartial))

	snap, err := s.Load(spec)
	require.NoError(t, err)
	snap.Record.UserStories["US1"].Scenarios["US1-AS1"].Level = types.MaturityComplete

	level, err := s.ScenarioMaturity(spec, "US1", "US1-AS1")
	require.NoError(t, err)
	assert.Equal(t, types.MaturityPartial, level)
}

func TestStoreTestConfig(t *testing.T) {
	s := newTestStore()
	spec := specIn(t)

	tc, err := s.TestConfig(spec)
	require.NoError(t, err)
	assert.Nil(t, tc)

	current, _ := Paths(spec)
	require.NoError(t, os.WriteFile(current, []byte(`{
  "lastUpdated": "",
  "testConfig": {"framework": "playwright", "runCommand": "npx playwright test", "runScenarioCommand": "npx playwright test -g {scenarioId}"},
  "userStories": {}
}`), 0o644))
	s.InvalidateAll()

	tc, err = s.TestConfig(spec)
	require.NoError(t, err)
	require.NotNil(t, tc)
	assert.Equal(t, "playwright", tc.Framework)
	assert.Equal(t, "npx playwright test -g US1-AS2", tc.ScenarioCommand("US1-AS2"))
}
