package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushTokenRepository reads the device token registry maintained by the
// mobile collaborator.
type PushTokenRepository interface {
	// FirstForUser returns the most recently registered token, or "" when
	// the user has no registered device.
	FirstForUser(ctx context.Context, userID string) (string, error)
}

type pushTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPushTokenRepository instantiates repository.
func NewPushTokenRepository(pool *pgxpool.Pool) PushTokenRepository {
	return &pushTokenRepository{pool: pool}
}

func (r *pushTokenRepository) FirstForUser(ctx context.Context, userID string) (string, error) {
	const query = `
        SELECT token FROM push_tokens
        WHERE user_id=$1
        ORDER BY created_at DESC
        LIMIT 1`
	var token string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&token); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return token, nil
}
