package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// DeadLetterRepository encapsulates terminal-failure persistence.
type DeadLetterRepository interface {
	Create(ctx context.Context, record *domain.DeadLetterRecord) error
	UpdateStatus(ctx context.Context, id string, status domain.DeadLetterStatus) error
	GetByID(ctx context.Context, id string) (*domain.DeadLetterRecord, error)
	List(ctx context.Context, status *domain.DeadLetterStatus, limit, offset int) ([]domain.DeadLetterRecord, error)
}

type deadLetterRepository struct {
	pool *pgxpool.Pool
}

// NewDeadLetterRepository instantiates repository.
func NewDeadLetterRepository(pool *pgxpool.Pool) DeadLetterRepository {
	return &deadLetterRepository{pool: pool}
}

const deadLetterColumns = `id, job_type, args, error_class, error_text, queue, status, failed_at, updated_at`

func (r *deadLetterRepository) Create(ctx context.Context, record *domain.DeadLetterRecord) error {
	const query = `
        INSERT INTO dead_letters (job_type, args, error_class, error_text, queue, status, failed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		record.JobType,
		record.Args,
		record.ErrorClass,
		record.ErrorText,
		record.Queue,
		record.Status,
		record.FailedAt,
	).Scan(&record.ID, &record.UpdatedAt)
}

func (r *deadLetterRepository) UpdateStatus(ctx context.Context, id string, status domain.DeadLetterStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE dead_letters SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *deadLetterRepository) GetByID(ctx context.Context, id string) (*domain.DeadLetterRecord, error) {
	query := `SELECT ` + deadLetterColumns + ` FROM dead_letters WHERE id=$1`
	var record domain.DeadLetterRecord
	if err := scanDeadLetter(r.pool.QueryRow(ctx, query, id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *deadLetterRepository) List(ctx context.Context, status *domain.DeadLetterStatus, limit, offset int) ([]domain.DeadLetterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		query := `SELECT ` + deadLetterColumns + `
                 FROM dead_letters WHERE status=$1 ORDER BY failed_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.pool.Query(ctx, query, *status, limit, offset)
	} else {
		query := `SELECT ` + deadLetterColumns + `
                 FROM dead_letters ORDER BY failed_at DESC LIMIT $1 OFFSET $2`
		rows, err = r.pool.Query(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DeadLetterRecord
	for rows.Next() {
		var record domain.DeadLetterRecord
		if err := scanDeadLetter(rows, &record); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func scanDeadLetter(row rowScanner, record *domain.DeadLetterRecord) error {
	return row.Scan(
		&record.ID,
		&record.JobType,
		&record.Args,
		&record.ErrorClass,
		&record.ErrorText,
		&record.Queue,
		&record.Status,
		&record.FailedAt,
		&record.UpdatedAt,
	)
}
