package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aremuc/home-monitor-iot/internal/store"
)

// timeLayout is second-precision and fixed-width, so lexicographic
// BETWEEN on the stored strings matches chronological order.
const timeLayout = "2006-01-02T15:04:05"

// Store is a SQLite-backed record store. A single connection is used
// so concurrent writers serialize in the driver instead of failing
// with a busy database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &store.StoreError{Op: "open database", Err: err}
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		now: time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			filename TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			imageId INTEGER NOT NULL,
			tag TEXT NOT NULL,
			FOREIGN KEY (imageId) REFERENCES images(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_timestamp ON images(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_image ON tags(imageId)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return &store.StoreError{Op: "migrate schema", Err: err}
		}
	}
	return nil
}

func (s *Store) CreateImage(ctx context.Context, storedName string) (int64, error) {
	timestamp := s.now().UTC().Truncate(time.Second).Format(timeLayout)

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO images (timestamp, filename) VALUES (?, ?)`,
		timestamp, storedName,
	)
	if err != nil {
		return 0, &store.StoreError{Op: "create image", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &store.StoreError{Op: "create image", Err: err}
	}
	return id, nil
}

func (s *Store) AddTags(ctx context.Context, imageID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	// One multi-row INSERT keeps the batch atomic.
	placeholders := make([]string, 0, len(tags))
	args := make([]any, 0, len(tags)*2)
	for _, tag := range tags {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, imageID, tag)
	}

	query := `INSERT INTO tags (imageId, tag) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &store.StoreError{Op: "add tags", Err: err}
	}
	return nil
}

func (s *Store) TagsInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.tag
		FROM tags t
		JOIN images i ON t.imageId = i.id
		WHERE i.timestamp BETWEEN ? AND ?
		ORDER BY t.tag
	`, formatBound(from), formatBound(to))
	if err != nil {
		return nil, &store.StoreError{Op: "tags in range", Err: err}
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, &store.StoreError{Op: "tags in range", Err: err}
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "tags in range", Err: err}
	}
	return tags, nil
}

func (s *Store) HasTagInRange(ctx context.Context, tag string, from, to time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tags t
		JOIN images i ON t.imageId = i.id
		WHERE i.timestamp BETWEEN ? AND ?
		  AND LOWER(t.tag) = LOWER(?)
	`, formatBound(from), formatBound(to), tag).Scan(&count)
	if err != nil {
		return false, &store.StoreError{Op: "has tag in range", Err: err}
	}
	return count > 0, nil
}

func (s *Store) PopularTags(ctx context.Context, limit int) ([]store.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS cnt
		FROM tags
		GROUP BY tag
		ORDER BY cnt DESC, tag ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, &store.StoreError{Op: "popular tags", Err: err}
	}
	defer rows.Close()

	ranking := make([]store.TagCount, 0, limit)
	for rows.Next() {
		var tc store.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, &store.StoreError{Op: "popular tags", Err: err}
		}
		ranking = append(ranking, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "popular tags", Err: err}
	}
	return ranking, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &store.StoreError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatBound(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

var _ store.RecordStore = (*Store)(nil)
