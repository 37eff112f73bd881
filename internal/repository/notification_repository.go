package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// NotificationRepository encapsulates notification persistence.
// Rows are never deleted; they form the delivery audit trail.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	Update(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByStatus(ctx context.Context, status domain.NotificationStatus, limit, offset int) ([]domain.Notification, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, ticket_id, content_entry_id, channel, recipient, body, status,
               retry_count, last_error, next_attempt_at, delivered_at, created_at, updated_at`

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (ticket_id, content_entry_id, channel, recipient, body, status,
                                   retry_count, last_error, next_attempt_at, delivered_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		notification.TicketID,
		notification.ContentEntryID,
		notification.Channel,
		notification.Recipient,
		notification.Body,
		notification.Status,
		notification.RetryCount,
		notification.LastError,
		notification.NextAttemptAt,
		notification.DeliveredAt,
	).Scan(&notification.ID, &notification.CreatedAt, &notification.UpdatedAt)
}

func (r *notificationRepository) Update(ctx context.Context, notification *domain.Notification) error {
	const query = `
        UPDATE notifications SET status=$1, retry_count=$2, last_error=$3, next_attempt_at=$4,
            delivered_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		notification.Status,
		notification.RetryCount,
		notification.LastError,
		notification.NextAttemptAt,
		notification.DeliveredAt,
		notification.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	var notification domain.Notification
	if err := scanNotification(r.pool.QueryRow(ctx, query, id), &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ListByStatus(ctx context.Context, status domain.NotificationStatus, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + notificationColumns + `
             FROM notifications WHERE status=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *notificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + notificationColumns + `
             FROM notifications
             WHERE status=$1 AND next_attempt_at IS NOT NULL AND next_attempt_at <= $2
             ORDER BY next_attempt_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, domain.NotificationStatusFailed, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func scanNotification(row rowScanner, notification *domain.Notification) error {
	return row.Scan(
		&notification.ID,
		&notification.TicketID,
		&notification.ContentEntryID,
		&notification.Channel,
		&notification.Recipient,
		&notification.Body,
		&notification.Status,
		&notification.RetryCount,
		&notification.LastError,
		&notification.NextAttemptAt,
		&notification.DeliveredAt,
		&notification.CreatedAt,
		&notification.UpdatedAt,
	)
}

func scanNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := scanNotification(rows, &notification); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}
