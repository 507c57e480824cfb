package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/theplant/speckit-extension/pkg/types"
)

// MaturitySource supplies the levels stored for stories and scenarios.
type MaturitySource interface {
	UserStoryMaturity(specPath, storyKey string) (types.MaturityLevel, error)
	ScenarioMaturity(specPath, storyKey, scenarioID string) (types.MaturityLevel, error)
}

// Index is a SQLite database holding the most recent build.
type Index struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithClock sets the time source for build timestamps.
func WithClock(now func() time.Time) Option {
	return func(ix *Index) {
		if now != nil {
			ix.now = now
		}
	}
}

// Open opens or creates the index database in dataDir and ensures the
// schema exists.
func Open(dataDir string, opts ...Option) (*Index, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// A single connection keeps transactions and reads on one handle.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	ix := &Index{
		db:     db,
		path:   path,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Path returns the database file path.
func (ix *Index) Path() string {
	return ix.path
}

// Close releases the database. Close is idempotent; every other operation
// returns types.ErrIndexClosed afterwards.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	if err := ix.db.Close(); err != nil {
		return err
	}
	return nil
}

// Build replaces the indexed content with features and the levels reported
// by levels, inside one transaction, and returns the new build id.
func (ix *Index) Build(ctx context.Context, features []types.FeatureSpec, levels MaturitySource) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return "", types.ErrIndexClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate build id: %w", err)
	}
	buildID := id.String()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin build: %w", err)
	}
	defer tx.Rollback()

	for _, table := range contentTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return "", fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (build_id, created_at, feature_count) VALUES (?, ?, ?)`,
		buildID, ix.now().UTC().Format(time.RFC3339), len(features),
	); err != nil {
		return "", fmt.Errorf("insert build: %w", err)
	}

	for i := range features {
		f := &features[i]
		if err := insertFeature(ctx, tx, buildID, f, levels); err != nil {
			return "", fmt.Errorf("index feature %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit build: %w", err)
	}
	ix.logger.Info("index built", "build", buildID, "features", len(features))
	return buildID, nil
}

func insertFeature(ctx context.Context, tx *sql.Tx, buildID string, f *types.FeatureSpec, levels MaturitySource) error {
	var number any
	if f.Number > 0 {
		number = f.Number
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO features (name, number, display_name, spec_path, build_id) VALUES (?, ?, ?, ?, ?)`,
		f.Name, number, f.DisplayName, f.SpecPath, buildID,
	); err != nil {
		return err
	}

	for i := range f.Stories {
		s := &f.Stories[i]
		key := s.ID()
		level, err := levels.UserStoryMaturity(f.SpecPath, key)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stories (feature, story_key, number, title, priority, level, start_line, end_line)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.Name, key, s.Number, s.Title, s.Priority.String(), string(level), s.StartLine, s.EndLine,
		); err != nil {
			return err
		}

		for _, sc := range s.Scenarios {
			scLevel, err := levels.ScenarioMaturity(f.SpecPath, key, sc.ID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scenarios (feature, scenario_id, story_key, level, given_text, when_text, then_text, line)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				f.Name, sc.ID, key, string(scLevel), sc.Given, sc.When, sc.Then, sc.Line,
			); err != nil {
				return err
			}
			for _, t := range sc.Tests {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO tests (feature, scenario_id, file_path, test_name, line, annotation)
                     VALUES (?, ?, ?, ?, ?, ?)`,
					f.Name, sc.ID, t.FilePath, nullString(t.TestName), nullInt(t.Line), nullString(t.Annotation),
				); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}
