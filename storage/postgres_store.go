package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"open-homes-api/models"
	"open-homes-api/utils"
)

const upsertBatchSize = 50

// PostgresStore persists open homes to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to answer,
// runs schema migrations, and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps, err := NewPostgresStoreFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ps, nil
}

// NewPostgresStoreFromDB wraps an already open handle and migrates it.
func NewPostgresStoreFromDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS open_homes (
			id             BIGSERIAL PRIMARY KEY,
			listing_id     BIGINT       UNIQUE NOT NULL,
			title          TEXT         NOT NULL DEFAULT '',
			location       TEXT         NOT NULL DEFAULT '',
			bedrooms       INTEGER      NOT NULL DEFAULT 0,
			bathrooms      INTEGER      NOT NULL DEFAULT 0,
			open_home_time TIMESTAMPTZ  NOT NULL,
			price          TEXT         NOT NULL DEFAULT '',
			picture_href   TEXT         NOT NULL DEFAULT '',
			updated_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_open_homes_time     ON open_homes(open_home_time);
		CREATE INDEX IF NOT EXISTS idx_open_homes_location ON open_homes(location);
	`)
	return err
}

// Upsert batch-writes summaries. Summaries without a listing id are skipped;
// within one call the last summary for a listing id wins.
func (ps *PostgresStore) Upsert(ctx context.Context, summaries []models.OpenHomeSummary) (int64, error) {
	rows := keyable(summaries)
	if len(rows) == 0 {
		return 0, nil
	}

	var written int64
	for i := 0; i < len(rows); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := ps.upsertBatch(ctx, rows[i:end])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (ps *PostgresStore) upsertBatch(ctx context.Context, batch []models.OpenHomeSummary) (int64, error) {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, s := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			s.ListingID, s.Title, s.Location, s.Bedrooms, s.Bathrooms, s.OpenHomeTime, s.Price, s.PictureHref)
	}

	query := fmt.Sprintf(`
		INSERT INTO open_homes (listing_id, title, location, bedrooms, bathrooms, open_home_time, price, picture_href)
		VALUES %s
		ON CONFLICT (listing_id) DO UPDATE SET
			title          = EXCLUDED.title,
			location       = EXCLUDED.location,
			bedrooms       = EXCLUDED.bedrooms,
			bathrooms      = EXCLUDED.bathrooms,
			open_home_time = EXCLUDED.open_home_time,
			price          = EXCLUDED.price,
			picture_href   = EXCLUDED.picture_href,
			updated_at     = NOW()
	`, strings.Join(valueStrings, ","))

	res, err := ps.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("postgres: upsert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: rows affected: %w", err)
	}
	return n, nil
}

const selectColumns = `id, listing_id, title, location, bedrooms, bathrooms, open_home_time, price, picture_href`

// FetchAll retrieves all stored open homes, soonest first.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]models.OpenHomeSummary, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM open_homes
		ORDER BY open_home_time ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.OpenHomeSummary, 0)
	for rows.Next() {
		var s models.OpenHomeSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}
	return summaries, nil
}

// FetchOne looks a row up by internal id or listing id. Non-numeric ids
// cannot match either column and return ErrNotFound.
func (ps *PostgresStore) FetchOne(ctx context.Context, id string) (*models.OpenHomeSummary, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	row := ps.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM open_homes
		WHERE id = $1 OR listing_id = $1
		ORDER BY (listing_id = $1) DESC
		LIMIT 1
	`, n)

	var s models.OpenHomeSummary
	if err := scanSummary(row, &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(r rowScanner, s *models.OpenHomeSummary) error {
	err := r.Scan(
		&s.ID, &s.ListingID, &s.Title, &s.Location, &s.Bedrooms,
		&s.Bathrooms, &s.OpenHomeTime, &s.Price, &s.PictureHref,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("postgres: scan row: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
