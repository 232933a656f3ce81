package targets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists targets in Postgres. The single-active invariant is
// enforced transactionally in Activate.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const targetColumns = `id, user_id, name, url, api_secret, is_active, created_at`

func (s *PGStore) Insert(ctx context.Context, target Target) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO webhook_targets (id, user_id, name, url, api_secret, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		target.ID, target.UserID, target.Name, target.URL,
		target.APISecret, target.IsActive, target.CreatedAt)
	return err
}

func (s *PGStore) GetByID(ctx context.Context, userID, id string) (Target, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+targetColumns+` FROM webhook_targets WHERE id = $1 AND user_id = $2`,
		id, userID)
	target, err := scanTarget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Target{}, false, nil
	}
	if err != nil {
		return Target{}, false, err
	}
	return target, true, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+targetColumns+` FROM webhook_targets WHERE user_id = $1 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Target
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, target Target) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE webhook_targets SET name = $3, url = $4, api_secret = $5
		WHERE id = $1 AND user_id = $2`,
		target.ID, target.UserID, target.Name, target.URL, target.APISecret)
	return err
}

func (s *PGStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM webhook_targets WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (s *PGStore) Activate(ctx context.Context, userID, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE webhook_targets SET is_active = false WHERE user_id = $1 AND is_active`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE webhook_targets SET is_active = true WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) GetActive(ctx context.Context, userID string) (Target, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+targetColumns+` FROM webhook_targets WHERE user_id = $1 AND is_active`, userID)
	target, err := scanTarget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Target{}, false, nil
	}
	if err != nil {
		return Target{}, false, err
	}
	return target, true, nil
}

func scanTarget(row pgx.Row) (Target, error) {
	var target Target
	err := row.Scan(&target.ID, &target.UserID, &target.Name, &target.URL,
		&target.APISecret, &target.IsActive, &target.CreatedAt)
	return target, err
}
