package channel

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// LoopbackAdapter succeeds trivially for channels without a networked
// transport in this deployment (chat commands, messaging apps handled by an
// upstream gateway). The send is logged so operators can trace deliveries.
type LoopbackAdapter struct {
	channel domain.Channel
	logger  *zap.Logger
}

// NewLoopbackAdapter constructs the adapter.
func NewLoopbackAdapter(ch domain.Channel, logger *zap.Logger) *LoopbackAdapter {
	return &LoopbackAdapter{channel: ch, logger: logger}
}

var _ Adapter = (*LoopbackAdapter)(nil)

// Send records the delivery and reports success.
func (a *LoopbackAdapter) Send(ctx context.Context, payload Payload) error {
	a.logger.Info("notification delivered",
		zap.String("channel", string(a.channel)),
		zap.String("recipient", payload.Recipient),
		zap.String("ticket_key", payload.TicketKey))
	return nil
}
