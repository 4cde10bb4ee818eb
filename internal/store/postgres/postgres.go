package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aremuc/home-monitor-iot/internal/config"
	"github.com/aremuc/home-monitor-iot/internal/store"
)

// Store is a Postgres-backed record store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, &store.StoreError{Op: "parse dsn", Err: err}
	}

	poolConfig.MaxConns = int32(cfg.MaxOpen)
	poolConfig.MinConns = int32(cfg.MaxIdle)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &store.StoreError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &store.StoreError{Op: "ping", Err: err}
	}

	s := &Store{
		pool: pool,
		now:  time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			filename TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id BIGSERIAL PRIMARY KEY,
			image_id BIGINT NOT NULL REFERENCES images(id),
			tag TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_timestamp ON images(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_image ON tags(image_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &store.StoreError{Op: "migrate schema", Err: err}
		}
	}
	return nil
}

func (s *Store) CreateImage(ctx context.Context, storedName string) (int64, error) {
	timestamp := s.now().UTC().Truncate(time.Second)

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO images (timestamp, filename) VALUES ($1, $2) RETURNING id`,
		timestamp, storedName,
	).Scan(&id)
	if err != nil {
		return 0, &store.StoreError{Op: "create image", Err: err}
	}
	return id, nil
}

func (s *Store) AddTags(ctx context.Context, imageID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	// Single statement, so the batch is atomic.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tags (image_id, tag) SELECT $1, unnest($2::text[])`,
		imageID, tags,
	)
	if err != nil {
		return &store.StoreError{Op: "add tags", Err: err}
	}
	return nil
}

func (s *Store) TagsInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT t.tag
		FROM tags t
		JOIN images i ON t.image_id = i.id
		WHERE i.timestamp BETWEEN $1 AND $2
		ORDER BY t.tag
	`, bound(from), bound(to))
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
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM tags t
			JOIN images i ON t.image_id = i.id
			WHERE i.timestamp BETWEEN $1 AND $2
			  AND LOWER(t.tag) = LOWER($3)
		)
	`, bound(from), bound(to), tag).Scan(&found)
	if err != nil {
		return false, &store.StoreError{Op: "has tag in range", Err: err}
	}
	return found, nil
}

func (s *Store) PopularTags(ctx context.Context, limit int) ([]store.TagCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tag, COUNT(*) AS cnt
		FROM tags
		GROUP BY tag
		ORDER BY cnt DESC, tag ASC
		LIMIT $1
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
	if err := s.pool.Ping(ctx); err != nil {
		return &store.StoreError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func bound(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

var _ store.RecordStore = (*Store)(nil)
