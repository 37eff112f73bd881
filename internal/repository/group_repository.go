package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// GroupRepository encapsulates ticket-group persistence.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.TicketGroup) error
	Update(ctx context.Context, group *domain.TicketGroup) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketGroup, error)
	List(ctx context.Context, limit, offset int) ([]domain.TicketGroup, error)
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository instantiates repository.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

const groupColumns = `id, name, status, primary_ticket_id, member_ids,
               resolved_channel, resolution_note, resolved_at, created_at, updated_at`

func (r *groupRepository) Create(ctx context.Context, group *domain.TicketGroup) error {
	const query = `
        INSERT INTO ticket_groups (name, status, primary_ticket_id, member_ids, resolved_channel, resolution_note, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		group.Name,
		group.Status,
		group.PrimaryTicketID,
		group.MemberIDs,
		group.ResolvedChannel,
		group.ResolutionNote,
		group.ResolvedAt,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
}

func (r *groupRepository) Update(ctx context.Context, group *domain.TicketGroup) error {
	const query = `
        UPDATE ticket_groups SET name=$1, status=$2, primary_ticket_id=$3, member_ids=$4,
            resolved_channel=$5, resolution_note=$6, resolved_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		group.Name,
		group.Status,
		group.PrimaryTicketID,
		group.MemberIDs,
		group.ResolvedChannel,
		group.ResolutionNote,
		group.ResolvedAt,
		group.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.TicketGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM ticket_groups WHERE id=$1`
	var group domain.TicketGroup
	if err := scanGroup(r.pool.QueryRow(ctx, query, id), &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context, limit, offset int) ([]domain.TicketGroup, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + groupColumns + ` FROM ticket_groups ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketGroup
	for rows.Next() {
		var group domain.TicketGroup
		if err := scanGroup(rows, &group); err != nil {
			return nil, err
		}
		result = append(result, group)
	}
	return result, rows.Err()
}

func scanGroup(row rowScanner, group *domain.TicketGroup) error {
	return row.Scan(
		&group.ID,
		&group.Name,
		&group.Status,
		&group.PrimaryTicketID,
		&group.MemberIDs,
		&group.ResolvedChannel,
		&group.ResolutionNote,
		&group.ResolvedAt,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
}
