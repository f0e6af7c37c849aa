package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewTagPostgres creates a new TagPostgres repository.
func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

// List returns all tags, most used first.
func (r *TagPostgres) List(ctx context.Context) ([]model.Tag, error) {
	const q = `
		SELECT name, created_at, usage_count
		FROM tags
		ORDER BY usage_count DESC, name ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.Name, &t.CreatedAt, &t.UsageCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// Create inserts a new tag. An existing name yields repository.ErrDuplicate.
func (r *TagPostgres) Create(ctx context.Context, name string) (*model.Tag, error) {
	const q = `
		INSERT INTO tags (name, created_at, usage_count)
		VALUES ($1, $2, 0)
		ON CONFLICT (name) DO NOTHING
		RETURNING name, created_at, usage_count
	`
	var t model.Tag
	err := r.db.QueryRowContext(ctx, q, name, r.now()).Scan(&t.Name, &t.CreatedAt, &t.UsageCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &t, nil
}

// AdjustUsage upserts names and shifts their counts by delta, floored at zero.
func (r *TagPostgres) AdjustUsage(ctx context.Context, names []string, delta int) error {
	if len(names) == 0 || delta == 0 {
		return nil
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO tags (name, created_at, usage_count)
		SELECT t.name, $2, GREATEST($3::int, 0)
		FROM jsonb_array_elements_text($1::jsonb) AS t(name)
		ON CONFLICT (name) DO UPDATE
		SET usage_count = GREATEST(tags.usage_count + $3::int, 0)
	`
	_, err = r.db.ExecContext(ctx, q, string(payload), r.now(), delta)
	return err
}

// SetUsage replaces all usage counts in one transaction.
func (r *TagPostgres) SetUsage(ctx context.Context, counts map[string]int) error {
	payload, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE tags SET usage_count = 0 WHERE usage_count <> 0`); err != nil {
		return err
	}

	const q = `
		INSERT INTO tags (name, created_at, usage_count)
		SELECT key, $2, value::int
		FROM jsonb_each_text($1::jsonb)
		ON CONFLICT (name) DO UPDATE
		SET usage_count = EXCLUDED.usage_count
	`
	if _, err := tx.ExecContext(ctx, q, string(payload), r.now()); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
