package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/config"
	"github.com/spec-kit/dedup-service/internal/repository"
	"github.com/spec-kit/dedup-service/internal/similarity"
)

// ClusterService places freshly triaged tickets into groups by embedding
// similarity. It never moves a ticket that already belongs to a group.
type ClusterService struct {
	tickets repository.TicketRepository
	groups  *GroupService
	cfg     config.ClusteringConfig
	logger  *zap.Logger
	clock   func() time.Time
}

// ClusterDependencies bundles collaborators for the cluster service.
type ClusterDependencies struct {
	TicketRepo repository.TicketRepository
	Groups     *GroupService
	Config     config.ClusteringConfig
	Logger     *zap.Logger
}

// NewClusterService constructs the service.
func NewClusterService(deps ClusterDependencies) *ClusterService {
	return &ClusterService{
		tickets: deps.TicketRepo,
		groups:  deps.Groups,
		cfg:     deps.Config,
		logger:  deps.Logger,
		clock:   time.Now,
	}
}

// ClusterTicket compares the ticket against recent triaged tickets and
// either joins an existing group, forms a new one, or leaves the ticket
// alone. Re-delivered jobs for an already grouped ticket are no-ops.
func (s *ClusterService) ClusterTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.GroupID != nil {
		return nil
	}
	if !ticket.HasEmbedding() {
		s.logger.Warn("clustering requested before triage completed",
			zap.String("ticket_id", ticketID))
		return nil
	}

	since := s.clock().UTC().Add(-s.cfg.Lookback())
	candidates, err := s.tickets.ListCandidates(ctx, repository.CandidateFilter{
		Since:     since,
		ExcludeID: ticket.ID,
		Limit:     s.cfg.CandidateCap,
	})
	if err != nil {
		return err
	}

	scored := make([]similarity.Candidate, 0, len(candidates))
	titles := make(map[string]string, len(candidates)+1)
	titles[ticket.ID] = ticket.Title
	for i := range candidates {
		candidate := &candidates[i]
		score, err := similarity.Dot(ticket.Embedding, candidate.Embedding)
		if err != nil {
			// embeddings from a different provider generation are not comparable
			s.logger.Debug("skipping incomparable candidate",
				zap.String("candidate_id", candidate.ID), zap.Error(err))
			continue
		}
		scored = append(scored, similarity.Candidate{
			TicketID:  candidate.ID,
			GroupID:   candidate.GroupID,
			Score:     score,
			CreatedAt: candidate.CreatedAt,
		})
		titles[candidate.ID] = candidate.Title
	}

	ranked := similarity.Rank(scored, s.cfg.SimilarityThreshold)
	if len(ranked) == 0 {
		return nil
	}

	// An existing group wins over forming a new one, even when an
	// ungrouped candidate scored higher.
	for _, match := range ranked {
		if match.GroupID != nil {
			s.logger.Info("joining existing group",
				zap.String("ticket_id", ticket.ID),
				zap.String("group_id", *match.GroupID),
				zap.Float64("score", match.Score))
			_, err := s.groups.Add(ctx, *match.GroupID, []string{ticket.ID})
			return err
		}
	}

	memberIDs := []string{ticket.ID}
	for _, match := range ranked {
		memberIDs = append(memberIDs, match.TicketID)
	}
	name := s.deriveGroupName(memberIDs, titles)

	group, err := s.groups.Create(ctx, name, memberIDs, ticket.ID)
	if err != nil {
		return err
	}
	s.logger.Info("formed new group",
		zap.String("group_id", group.ID),
		zap.String("ticket_id", ticket.ID),
		zap.Int("members", len(memberIDs)),
		zap.Float64("top_score", ranked[0].Score))
	return nil
}

// deriveGroupName picks the shortest member title as the cheapest stand-in
// for a common subject line.
func (s *ClusterService) deriveGroupName(memberIDs []string, titles map[string]string) string {
	name := ""
	for _, id := range memberIDs {
		title := strings.TrimSpace(titles[id])
		if title == "" {
			continue
		}
		if name == "" || len(title) < len(name) {
			name = title
		}
	}
	maxLen := s.cfg.GroupNameMaxLen
	if maxLen <= 0 {
		maxLen = 60
	}
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return AutoGroupPrefix + name
}
