package postgres

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tmpbin/internal/domain/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(16) UNIQUE NOT NULL,
			payload BYTEA NOT NULL,
			size BIGINT NOT NULL,
			secret TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// EntryCreate claims the code and commits the entry in a single statement.
// The upsert only fires when the occupying row is dead or carries the same
// payload, so a live entry with different content is never overwritten; in
// that case no row comes back and the caller gets ErrConflict.
func (p *PostgresStorage) EntryCreate(ctx context.Context, entry models.Entry) (models.Entry, error) {
	if entry.Code == "" || len(entry.Payload) == 0 {
		return models.Entry{}, models.ErrInvalidData
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO entries (code, payload, size, secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET payload = EXCLUDED.payload,
		    size = EXCLUDED.size,
		    secret = EXCLUDED.secret,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE entries.payload = EXCLUDED.payload
		   OR entries.expires_at <= EXCLUDED.created_at
		RETURNING id`,
		entry.Code, entry.Payload, entry.Size, entry.Secret, entry.CreatedAt, entry.ExpiresAt,
	).Scan(&entry.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, models.ErrConflict
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to insert entry: %w", err)
	}

	return entry, nil
}

func (p *PostgresStorage) EntryGetByCode(ctx context.Context, code string) (models.Entry, error) {
	var entry models.Entry
	err := p.db.QueryRowContext(ctx, `
		SELECT id, code, payload, size, secret, created_at, expires_at
		FROM entries WHERE code = $1`,
		code,
	).Scan(&entry.ID, &entry.Code, &entry.Payload, &entry.Size, &entry.Secret, &entry.CreatedAt, &entry.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, models.ErrNotFound
		}
		return models.Entry{}, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

func (p *PostgresStorage) EntryDelete(ctx context.Context, code string, secret string) error {
	var storedSecret string
	err := p.db.QueryRowContext(ctx,
		"SELECT secret FROM entries WHERE code = $1",
		code,
	).Scan(&storedSecret)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to get entry secret: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(secret)) != 1 {
		return models.ErrForbidden
	}

	// The secret is matched again in the predicate so a concurrent refresh
	// of the same code cannot be deleted with the stale secret.
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM entries WHERE code = $1 AND secret = $2",
		code, secret,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) EntryDeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM entries WHERE expires_at <= $1",
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}

	return int(affected), nil
}

func (p *PostgresStorage) EntryGetAll(ctx context.Context) ([]models.Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, code, payload, size, secret, created_at, expires_at
		FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var entry models.Entry
		if err := rows.Scan(&entry.ID, &entry.Code, &entry.Payload, &entry.Size,
			&entry.Secret, &entry.CreatedAt, &entry.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.db.PingContext(ctx)
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
