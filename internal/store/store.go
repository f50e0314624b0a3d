package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/examcreator/internal/model"

	_ "modernc.org/sqlite"
)

// ErrClassNotFound is returned when a class id is not in the roster.
var ErrClassNotFound = errors.New("class not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'coach',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		facility TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_selections (
		class_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content_id TEXT NOT NULL DEFAULT '',
		selected_at DATETIME NOT NULL,
		PRIMARY KEY (class_id, exercise_id),
		FOREIGN KEY (class_id) REFERENCES classes(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertClass inserts a class or renames an existing one.
func (s *Store) UpsertClass(c model.Class) error {
	_, err := s.db.Exec(
		`INSERT INTO classes (id, name, facility, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, facility = excluded.facility`,
		c.ID, c.Name, c.Facility, time.Now(),
	)
	return err
}

// GetClass returns a class by ID, or ErrClassNotFound.
func (s *Store) GetClass(ctx context.Context, id string) (model.Class, error) {
	var c model.Class
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, facility, created_at FROM classes WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Facility, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, fmt.Errorf("%w: %s", ErrClassNotFound, id)
	}
	return c, err
}

// ListClasses returns all classes ordered by name.
func (s *Store) ListClasses() ([]model.Class, error) {
	rows, err := s.db.Query(`SELECT id, name, facility, created_at FROM classes ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Facility, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// ClassCount returns the number of classes in the roster.
func (s *Store) ClassCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM classes`).Scan(&count)
	return count, err
}

// SelectExercise adds an exercise to the class's exam draft. Selecting an
// already selected exercise refreshes its title.
func (s *Store) SelectExercise(classID string, ex model.ExerciseRef) error {
	_, err := s.db.Exec(
		`INSERT INTO exam_selections (class_id, exercise_id, title, content_id, selected_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(class_id, exercise_id) DO UPDATE SET title = excluded.title, content_id = excluded.content_id`,
		classID, ex.ID, ex.Title, ex.ContentID, time.Now(),
	)
	return err
}

// DeselectExercise removes an exercise from the class's exam draft.
func (s *Store) DeselectExercise(classID, exerciseID string) error {
	_, err := s.db.Exec(
		`DELETE FROM exam_selections WHERE class_id = ? AND exercise_id = ?`, classID, exerciseID,
	)
	return err
}

// ClearSelection empties the class's exam draft.
func (s *Store) ClearSelection(classID string) error {
	_, err := s.db.Exec(`DELETE FROM exam_selections WHERE class_id = ?`, classID)
	return err
}

// ListSelectedExercises returns the class's exam draft in selection order.
func (s *Store) ListSelectedExercises(ctx context.Context, classID string) ([]model.ExerciseRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, title, content_id FROM exam_selections
		 WHERE class_id = ? ORDER BY rowid`, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []model.ExerciseRef
	for rows.Next() {
		var r model.ExerciseRef
		if err := rows.Scan(&r.ID, &r.Title, &r.ContentID); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
