// Package index builds a queryable SQLite snapshot of the refreshed
// specification tree: features, stories, scenarios, linked tests, and the
// maturity levels recorded for them.
package index

// FileName is the database file inside the data directory.
const FileName = "speckit.db"

// Schema DDL. Tables are created once and emptied on every build.
const (
	createBuilds = `CREATE TABLE IF NOT EXISTS builds (
    build_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    feature_count INTEGER NOT NULL
);`

	createFeatures = `CREATE TABLE IF NOT EXISTS features (
    name TEXT PRIMARY KEY,
    number INTEGER,
    display_name TEXT NOT NULL,
    spec_path TEXT NOT NULL,
    build_id TEXT NOT NULL,
    FOREIGN KEY (build_id) REFERENCES builds(build_id)
);`

	createStories = `CREATE TABLE IF NOT EXISTS stories (
    feature TEXT NOT NULL,
    story_key TEXT NOT NULL,
    number INTEGER NOT NULL,
    title TEXT NOT NULL,
    priority TEXT NOT NULL,
    level TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    PRIMARY KEY (feature, story_key),
    FOREIGN KEY (feature) REFERENCES features(name)
);`

	createScenarios = `CREATE TABLE IF NOT EXISTS scenarios (
    feature TEXT NOT NULL,
    scenario_id TEXT NOT NULL,
    story_key TEXT NOT NULL,
    level TEXT NOT NULL,
    given_text TEXT NOT NULL,
    when_text TEXT NOT NULL,
    then_text TEXT NOT NULL,
    line INTEGER NOT NULL,
    PRIMARY KEY (feature, scenario_id),
    FOREIGN KEY (feature, story_key) REFERENCES stories(feature, story_key)
);`

	createTests = `CREATE TABLE IF NOT EXISTS tests (
    feature TEXT NOT NULL,
    scenario_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    test_name TEXT,
    line INTEGER,
    annotation TEXT,
    FOREIGN KEY (feature, scenario_id) REFERENCES scenarios(feature, scenario_id)
);`
)

const (
	idxStoriesLevel   = `CREATE INDEX IF NOT EXISTS idx_stories_level ON stories(level);`
	idxScenariosLevel = `CREATE INDEX IF NOT EXISTS idx_scenarios_level ON scenarios(level);`
	idxTestsScenario  = `CREATE INDEX IF NOT EXISTS idx_tests_scenario ON tests(feature, scenario_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createBuilds,
	createFeatures,
	createStories,
	createScenarios,
	createTests,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxStoriesLevel,
	idxScenariosLevel,
	idxTestsScenario,
}

// contentTables lists the tables emptied by a build, children first.
var contentTables = []string{"tests", "scenarios", "stories", "features"}
