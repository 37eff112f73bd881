// Package triage defines the contract with the external classification and
// embedding provider, plus the retry and cooldown policy around it.
package triage

import (
	"context"
	"errors"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// ErrUnavailable signals a transient upstream failure worth retrying.
var ErrUnavailable = errors.New("triage provider unavailable")

// ErrRateLimited signals a 429-equivalent. Callers must arm the shared
// cooldown and reschedule rather than wait in-thread.
var ErrRateLimited = errors.New("triage provider rate limited")

// Classification is the provider's suggested triage for a ticket.
type Classification struct {
	Type     domain.TicketType
	Priority domain.TicketPriority
	Summary  string
}

// Provider produces classifications and embedding vectors for ticket text.
// Embeddings are fixed-length and L2-normalized.
type Provider interface {
	Classify(ctx context.Context, title, body string) (*Classification, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
