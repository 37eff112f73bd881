package triage

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/similarity"
)

// StubDimension is the vector length produced by the stub provider.
const StubDimension = 64

// StubProvider is a deterministic, offline provider used when no external
// classification service is configured. Similar texts hash to similar
// vectors only by sharing tokens; it is good enough for development and
// exercising the pipeline end to end.
type StubProvider struct{}

// NewStubProvider constructs the provider.
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

var _ Provider = (*StubProvider)(nil)

// Classify derives type and priority from keywords.
func (p *StubProvider) Classify(ctx context.Context, title, body string) (*Classification, error) {
	text := strings.ToLower(title + " " + body)

	ticketType := domain.TicketTypeOther
	switch {
	case containsAny(text, "error", "crash", "broken", "fail", "bug"):
		ticketType = domain.TicketTypeBug
	case containsAny(text, "how", "what", "why", "?"):
		ticketType = domain.TicketTypeQuestion
	case containsAny(text, "please add", "feature", "request", "could you"):
		ticketType = domain.TicketTypeRequest
	}

	priority := domain.TicketPriorityMedium
	if containsAny(text, "urgent", "outage", "down", "asap") {
		priority = domain.TicketPriorityUrgent
	}

	summary := strings.TrimSpace(title)
	if len(summary) > 120 {
		summary = summary[:120]
	}

	return &Classification{
		Type:     ticketType,
		Priority: defaultPriority(priority),
		Summary:  summary,
	}, nil
}

// Embed hashes tokens into a fixed-length normalized vector.
func (p *StubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, StubDimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[h.Sum32()%StubDimension]++
	}
	normalized, err := similarity.Normalize(vector)
	if err != nil {
		// text with no tokens; return a fixed unit vector
		vector[0] = 1
		return vector, nil
	}
	return normalized, nil
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
