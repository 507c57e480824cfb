package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theplant/speckit-extension/pkg/types"
)

// Build describes one recorded build.
type Build struct {
	ID           string    `json:"build_id"`
	CreatedAt    time.Time `json:"created_at"`
	FeatureCount int       `json:"feature_count"`
}

// ScenarioRow is one indexed scenario.
type ScenarioRow struct {
	Feature    string              `json:"feature"`
	StoryKey   string              `json:"story"`
	ScenarioID string              `json:"scenario"`
	Level      types.MaturityLevel `json:"level"`
	Given      string              `json:"given"`
	When       string              `json:"when"`
	Then       string              `json:"then"`
	Line       int                 `json:"line"`
}

// StorySummary is one indexed story with its displayed level and counts.
type StorySummary struct {
	Feature   string              `json:"feature"`
	StoryKey  string              `json:"story"`
	Title     string              `json:"title"`
	Priority  string              `json:"priority"`
	Level     types.MaturityLevel `json:"level"`
	Scenarios int                 `json:"scenarios"`
	Tests     int                 `json:"tests"`
}

const scenarioColumns = `s.feature, s.story_key, s.scenario_id, s.level, s.given_text, s.when_text, s.then_text, s.line`

// orderScenarios sorts by feature number, story number, then line.
const orderScenarios = ` ORDER BY f.number IS NULL, f.number, f.name, st.number, s.line`

const scenarioJoin = ` FROM scenarios s
    JOIN stories st ON st.feature = s.feature AND st.story_key = s.story_key
    JOIN features f ON f.name = s.feature`

// LatestBuild returns the most recent build, or false when the index has
// never been built.
func (ix *Index) LatestBuild(ctx context.Context) (Build, bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return Build{}, false, types.ErrIndexClosed
	}

	var (
		b       Build
		created string
	)
	err := ix.db.QueryRowContext(ctx,
		`SELECT build_id, created_at, feature_count FROM builds ORDER BY created_at DESC, build_id DESC LIMIT 1`,
	).Scan(&b.ID, &created, &b.FeatureCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, fmt.Errorf("query build: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return b, true, nil
}

// ScenariosByLevel returns every scenario whose stored level is level.
func (ix *Index) ScenariosByLevel(ctx context.Context, level types.MaturityLevel) ([]ScenarioRow, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidLevel, level)
	}
	return ix.scenarios(ctx, `SELECT `+scenarioColumns+scenarioJoin+` WHERE s.level = ?`+orderScenarios, string(level))
}

// UnlinkedScenarios returns every scenario with no linked test.
func (ix *Index) UnlinkedScenarios(ctx context.Context) ([]ScenarioRow, error) {
	return ix.scenarios(ctx, `SELECT `+scenarioColumns+scenarioJoin+`
    WHERE NOT EXISTS (SELECT 1 FROM tests t WHERE t.feature = s.feature AND t.scenario_id = s.scenario_id)`+orderScenarios)
}

func (ix *Index) scenarios(ctx context.Context, query string, args ...any) ([]ScenarioRow, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, types.ErrIndexClosed
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	out := []ScenarioRow{}
	for rows.Next() {
		var r ScenarioRow
		var level string
		if err := rows.Scan(&r.Feature, &r.StoryKey, &r.ScenarioID, &level, &r.Given, &r.When, &r.Then, &r.Line); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		r.Level = types.MaturityLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

// StorySummaries returns every story with its displayed level, scenario
// count, and linked test count.
func (ix *Index) StorySummaries(ctx context.Context) ([]StorySummary, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, types.ErrIndexClosed
	}

	rows, err := ix.db.QueryContext(ctx, `SELECT st.feature, st.story_key, st.title, st.priority, st.level,
        (SELECT COUNT(*) FROM scenarios s WHERE s.feature = st.feature AND s.story_key = st.story_key),
        (SELECT COUNT(*) FROM tests t JOIN scenarios s ON s.feature = t.feature AND s.scenario_id = t.scenario_id
            WHERE s.feature = st.feature AND s.story_key = st.story_key)
    FROM stories st
    JOIN features f ON f.name = st.feature
    ORDER BY f.number IS NULL, f.number, f.name, st.number`)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	out := []StorySummary{}
	for rows.Next() {
		var s StorySummary
		var level string
		if err := rows.Scan(&s.Feature, &s.StoryKey, &s.Title, &s.Priority, &level, &s.Scenarios, &s.Tests); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		s.Level = types.MaturityLevel(level)
		out = append(out, s)
	}
	return out, rows.Err()
}
