package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// CandidateFilter captures clustering candidate query parameters.
type CandidateFilter struct {
	Since     time.Time
	ExcludeID string
	Limit     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByChannelExternalID(ctx context.Context, channel domain.Channel, externalID string) (*domain.Ticket, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]domain.Ticket, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, channel, external_id, reporter_id, title, description,
               summary, ticket_type, status, priority, embedding, group_id,
               created_at, updated_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, channel, external_id, reporter_id, title, description,
                             summary, ticket_type, status, priority, embedding, group_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.Channel,
		ticket.ExternalID,
		ticket.ReporterID,
		ticket.Title,
		ticket.Description,
		ticket.Summary,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.Embedding,
		ticket.GroupID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, summary=$3, ticket_type=$4, status=$5,
            priority=$6, embedding=$7, group_id=$8, resolved_at=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Summary,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.Embedding,
		ticket.GroupID,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByChannelExternalID(ctx context.Context, channel domain.Channel, externalID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE channel=$1 AND external_id=$2`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, channel, externalID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListCandidates(ctx context.Context, filter CandidateFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE embedding IS NOT NULL AND created_at >= $1 AND id <> $2
             ORDER BY created_at DESC
             LIMIT $3`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, query, filter.Since, filter.ExcludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE group_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Channel,
		&ticket.ExternalID,
		&ticket.ReporterID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Summary,
		&ticket.Type,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Embedding,
		&ticket.GroupID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
