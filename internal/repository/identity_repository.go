package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// IdentityRepository resolves reporters to channel recipients.
type IdentityRepository interface {
	Upsert(ctx context.Context, identity *domain.ChannelIdentity) error
	GetByReporterAndChannel(ctx context.Context, reporterID string, channel domain.Channel) (*domain.ChannelIdentity, error)
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository instantiates repository.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) Upsert(ctx context.Context, identity *domain.ChannelIdentity) error {
	const query = `
        INSERT INTO channel_identities (reporter_id, channel, address)
        VALUES ($1,$2,$3)
        ON CONFLICT (reporter_id, channel) DO UPDATE SET address=EXCLUDED.address
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		identity.ReporterID,
		identity.Channel,
		identity.Address,
	).Scan(&identity.ID)
}

func (r *identityRepository) GetByReporterAndChannel(ctx context.Context, reporterID string, channel domain.Channel) (*domain.ChannelIdentity, error) {
	const query = `
        SELECT id, reporter_id, channel, address
        FROM channel_identities WHERE reporter_id=$1 AND channel=$2`
	var identity domain.ChannelIdentity
	if err := r.pool.QueryRow(ctx, query, reporterID, channel).Scan(
		&identity.ID,
		&identity.ReporterID,
		&identity.Channel,
		&identity.Address,
	); err != nil {
		return nil, err
	}
	return &identity, nil
}
