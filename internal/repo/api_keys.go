package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const knowledgeProvider = "knowledge"

// SyncKnowledgeKeys ensures the configured knowledge service keys exist in
// the database. Keys removed from config stay in the table but are simply
// never handed out again once marked inactive by an operator.
func (r *PG) SyncKnowledgeKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(ctx, `
INSERT INTO api_keys (value, provider, status)
VALUES ($1, $2, 'active')
ON CONFLICT (value, provider) DO NOTHING;
`, key, knowledgeProvider); err != nil {
				return fmt.Errorf("sync knowledge key %q: %w", key[:min(5, len(key))], err)
			}
		}
		return nil
	})
}

// ListActiveKnowledgeKeys retrieves active knowledge service keys, least
// recently used first.
func (r *PG) ListActiveKnowledgeKeys(ctx context.Context) ([]APIKey, error) {
	const q = `
SELECT id, value, provider, cooldown_until
FROM api_keys
WHERE provider = $1 AND status = 'active'
ORDER BY last_used_at ASC NULLS FIRST, created_at ASC;
`
	rows, err := r.pool.Query(ctx, q, knowledgeProvider)
	if err != nil {
		return nil, fmt.Errorf("list active knowledge keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Value, &k.Provider, &k.CooldownUntil); err != nil {
			return nil, fmt.Errorf("scan knowledge key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge keys: %w", err)
	}
	return keys, nil
}

// SetKeyCooldown parks a key until the given time after a quota rejection.
func (r *PG) SetKeyCooldown(ctx context.Context, id string, until time.Time) error {
	const q = `UPDATE api_keys SET cooldown_until = $2, updated_at = NOW() WHERE id = $1`
	ct, err := r.pool.Exec(ctx, q, id, until)
	if err != nil {
		return fmt.Errorf("set key cooldown: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}
	return nil
}
