package repo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG provides typed access to Postgres resources.
type PG struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	schema string
}

// New opens a new connection pool to the database with the desired search_path.
func New(ctx context.Context, databaseURL, schema string, logger *slog.Logger) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PG{
		pool:   pool,
		logger: logger.With("component", "repo"),
		schema: schema,
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PG) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PG) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes fn within a database transaction.
func (r *PG) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// RunMigrations applies schema migrations on the connected database.
func (r *PG) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

// UpsertProfile stores or updates the profile keyed by phone.
func (r *PG) UpsertProfile(ctx context.Context, p ProfileUpsert) (*Profile, error) {
	const q = `
INSERT INTO profiles (phone, display_name, language, status, updated_at)
VALUES ($1, $2, COALESCE($3, 'en'), COALESCE($4, 'new'), NOW())
ON CONFLICT (phone) DO UPDATE SET
    display_name = COALESCE(EXCLUDED.display_name, profiles.display_name),
    language = COALESCE($3, profiles.language),
    status = COALESCE($4, profiles.status),
    updated_at = NOW()
RETURNING id, phone, display_name, language, status, metadata, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, q, p.Phone, p.DisplayName, p.Language, p.Status)

	var out Profile
	if err := row.Scan(&out.ID, &out.Phone, &out.DisplayName, &out.Language, &out.Status, &out.Metadata, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &out, nil
}

// GetProfileByPhone returns the stored profile or nil when the phone is unseen.
func (r *PG) GetProfileByPhone(ctx context.Context, phone string) (*Profile, error) {
	const q = `
SELECT id, phone, display_name, language, status, metadata, created_at, updated_at
FROM profiles
WHERE phone = $1;
`
	var out Profile
	err := r.pool.QueryRow(ctx, q, phone).Scan(
		&out.ID, &out.Phone, &out.DisplayName, &out.Language, &out.Status, &out.Metadata, &out.CreatedAt, &out.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &out, nil
}

// InsertInteraction stores an interaction record for auditing purposes.
func (r *PG) InsertInteraction(ctx context.Context, it Interaction) error {
	const q = `
INSERT INTO interactions (phone, direction, category, payload)
VALUES ($1, $2, $3, $4);
`
	if _, err := r.pool.Exec(ctx, q, it.Phone, it.Direction, it.Category, it.Payload); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// ListRecentInteractions returns the latest interactions for the phone.
func (r *PG) ListRecentInteractions(ctx context.Context, phone string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT direction, category, payload, created_at
FROM interactions
WHERE phone = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, q, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent interactions: %w", err)
	}
	defer rows.Close()

	var records []Interaction
	for rows.Next() {
		var it Interaction
		if err := rows.Scan(&it.Direction, &it.Category, &it.Payload, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		it.Phone = phone
		records = append(records, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return records, nil
}

// InsertEscalation creates a new escalation ticket row.
func (r *PG) InsertEscalation(ctx context.Context, e Escalation) (*Escalation, error) {
	const q = `
INSERT INTO escalations (phone, question, queue, status)
VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'open'))
RETURNING id, created_at;
`
	err := r.pool.QueryRow(ctx, q, e.Phone, e.Question, e.Queue, e.Status).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert escalation: %w", err)
	}
	return &e, nil
}
