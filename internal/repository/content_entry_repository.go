package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// ContentEntryRepository encapsulates resolution-text persistence.
type ContentEntryRepository interface {
	Create(ctx context.Context, entry *domain.ContentEntry) error
	Update(ctx context.Context, entry *domain.ContentEntry) error
	GetByID(ctx context.Context, id string) (*domain.ContentEntry, error)
	ListApprovedByTicket(ctx context.Context, ticketID string) ([]domain.ContentEntry, error)
	ListApprovedSince(ctx context.Context, since time.Time) ([]domain.ContentEntry, error)
}

type contentEntryRepository struct {
	pool *pgxpool.Pool
}

// NewContentEntryRepository instantiates repository.
func NewContentEntryRepository(pool *pgxpool.Pool) ContentEntryRepository {
	return &contentEntryRepository{pool: pool}
}

const contentEntryColumns = `id, ticket_id, body, status, approved_at, created_at, updated_at`

func (r *contentEntryRepository) Create(ctx context.Context, entry *domain.ContentEntry) error {
	const query = `
        INSERT INTO content_entries (ticket_id, body, status, approved_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.Body,
		entry.Status,
		entry.ApprovedAt,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *contentEntryRepository) Update(ctx context.Context, entry *domain.ContentEntry) error {
	const query = `
        UPDATE content_entries SET body=$1, status=$2, approved_at=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, entry.Body, entry.Status, entry.ApprovedAt, entry.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contentEntryRepository) GetByID(ctx context.Context, id string) (*domain.ContentEntry, error) {
	query := `SELECT ` + contentEntryColumns + ` FROM content_entries WHERE id=$1`
	var entry domain.ContentEntry
	if err := scanContentEntry(r.pool.QueryRow(ctx, query, id), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *contentEntryRepository) ListApprovedByTicket(ctx context.Context, ticketID string) ([]domain.ContentEntry, error) {
	query := `SELECT ` + contentEntryColumns + `
             FROM content_entries WHERE ticket_id=$1 AND status=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, domain.ContentEntryStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContentEntries(rows)
}

func (r *contentEntryRepository) ListApprovedSince(ctx context.Context, since time.Time) ([]domain.ContentEntry, error) {
	query := `SELECT ` + contentEntryColumns + `
             FROM content_entries WHERE status=$1 AND approved_at IS NOT NULL AND approved_at >= $2
             ORDER BY approved_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.ContentEntryStatusApproved, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContentEntries(rows)
}

func scanContentEntry(row rowScanner, entry *domain.ContentEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.Body,
		&entry.Status,
		&entry.ApprovedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
}

func scanContentEntries(rows pgx.Rows) ([]domain.ContentEntry, error) {
	var result []domain.ContentEntry
	for rows.Next() {
		var entry domain.ContentEntry
		if err := scanContentEntry(rows, &entry); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
