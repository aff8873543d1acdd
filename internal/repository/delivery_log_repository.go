package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/notification-center/internal/domain"
)

// DeliveryOutcome carries the terminal fields written after an adapter call.
type DeliveryOutcome struct {
	Status            domain.DeliveryStatus
	ExternalMessageID *string
	ErrorMessage      *string
	SentAt            *time.Time
}

// DeliveryLogRepository encapsulates delivery log persistence.
type DeliveryLogRepository interface {
	Create(ctx context.Context, entry *domain.DeliveryLog) error
	// UpdateOutcome transitions an entry from an expected prior status.
	// Returns false when the row was not in that status, so overlapping
	// retry cycles cannot clobber each other's result.
	UpdateOutcome(ctx context.Context, id string, from domain.DeliveryStatus, outcome DeliveryOutcome) (bool, error)
	// IncrementRetry bumps the retry count of a failed entry and records
	// the latest failure reason.
	IncrementRetry(ctx context.Context, id, errorMessage string) error
	// ListRetryable pages failed entries still under the retry cap.
	ListRetryable(ctx context.Context, maxRetries, limit int) ([]domain.DeliveryLog, error)
	ListByNotification(ctx context.Context, notificationID string) ([]domain.DeliveryLog, error)
}

type deliveryLogRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryLogRepository instantiates repository.
func NewDeliveryLogRepository(pool *pgxpool.Pool) DeliveryLogRepository {
	return &deliveryLogRepository{pool: pool}
}

const deliveryLogColumns = `
        id, notification_id, channel, status, recipient_address,
        external_message_id, error_message, retry_count, sent_at, delivered_at, created_at`

func (r *deliveryLogRepository) Create(ctx context.Context, entry *domain.DeliveryLog) error {
	const query = `
        INSERT INTO delivery_logs (notification_id, channel, status, recipient_address)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.NotificationID,
		entry.Channel,
		entry.Status,
		entry.RecipientAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *deliveryLogRepository) UpdateOutcome(ctx context.Context, id string, from domain.DeliveryStatus, outcome DeliveryOutcome) (bool, error) {
	const query = `
        UPDATE delivery_logs
        SET status=$1, external_message_id=COALESCE($2, external_message_id),
            error_message=$3, sent_at=COALESCE($4, sent_at)
        WHERE id=$5 AND status=$6`
	cmd, err := r.pool.Exec(ctx, query,
		outcome.Status,
		outcome.ExternalMessageID,
		outcome.ErrorMessage,
		outcome.SentAt,
		id,
		from,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *deliveryLogRepository) IncrementRetry(ctx context.Context, id, errorMessage string) error {
	const query = `
        UPDATE delivery_logs
        SET retry_count=retry_count+1, error_message=$1
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, errorMessage, id, domain.DeliveryFailed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *deliveryLogRepository) ListRetryable(ctx context.Context, maxRetries, limit int) ([]domain.DeliveryLog, error) {
	const query = `
        SELECT` + deliveryLogColumns + `
        FROM delivery_logs
        WHERE status=$1 AND retry_count < $2
        ORDER BY created_at ASC
        LIMIT $3`
	rows, err := r.pool.Query(ctx, query, domain.DeliveryFailed, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeliveryLogs(rows)
}

func (r *deliveryLogRepository) ListByNotification(ctx context.Context, notificationID string) ([]domain.DeliveryLog, error) {
	const query = `
        SELECT` + deliveryLogColumns + `
        FROM delivery_logs
        WHERE notification_id=$1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, notificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeliveryLogs(rows)
}

func scanDeliveryLogs(rows pgx.Rows) ([]domain.DeliveryLog, error) {
	var result []domain.DeliveryLog
	for rows.Next() {
		var entry domain.DeliveryLog
		if err := rows.Scan(
			&entry.ID,
			&entry.NotificationID,
			&entry.Channel,
			&entry.Status,
			&entry.RecipientAddress,
			&entry.ExternalMessageID,
			&entry.ErrorMessage,
			&entry.RetryCount,
			&entry.SentAt,
			&entry.DeliveredAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
