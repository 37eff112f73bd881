// Package channel holds pluggable per-channel delivery adapters. Each
// channel has its own payload shape; adapters attempt a best-effort send
// and surface failures for the dispatcher's retry path.
package channel

import (
	"context"
	"fmt"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// Payload is the channel-agnostic content handed to an adapter.
type Payload struct {
	Recipient string
	TicketKey string
	Subject   string
	Body      string
}

// Adapter delivers a payload on one channel.
type Adapter interface {
	Send(ctx context.Context, payload Payload) error
}

// AdapterSet resolves adapters by channel.
type AdapterSet struct {
	adapters map[domain.Channel]Adapter
}

// NewAdapterSet constructs an empty set.
func NewAdapterSet() *AdapterSet {
	return &AdapterSet{adapters: make(map[domain.Channel]Adapter)}
}

// Register binds an adapter to a channel.
func (s *AdapterSet) Register(ch domain.Channel, adapter Adapter) {
	s.adapters[ch] = adapter
}

// Resolve returns the adapter for a channel.
func (s *AdapterSet) Resolve(ch domain.Channel) (Adapter, error) {
	adapter, ok := s.adapters[ch]
	if !ok {
		return nil, fmt.Errorf("no delivery adapter for channel %s", ch)
	}
	return adapter, nil
}
