package triage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/cooldown"
	"github.com/spec-kit/dedup-service/internal/domain"
)

// CooldownKey names the shared rate-limit flag for the triage provider.
const CooldownKey = "triage"

// RetryConfig bounds retries against the provider.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CooldownTTL    time.Duration
}

// RetryingProvider decorates a Provider with bounded capped-exponential
// backoff for transient failures and a shared cooldown for rate limits.
// When the cooldown is armed the call short-circuits with ErrRateLimited
// so the caller can reschedule instead of blocking a worker.
type RetryingProvider struct {
	inner    Provider
	cfg      RetryConfig
	cooldown cooldown.Cache
	logger   *zap.Logger
	sleep    func(time.Duration)
}

// NewRetryingProvider constructs the decorator.
func NewRetryingProvider(inner Provider, cfg RetryConfig, cache cooldown.Cache, logger *zap.Logger) *RetryingProvider {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &RetryingProvider{
		inner:    inner,
		cfg:      cfg,
		cooldown: cache,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

var _ Provider = (*RetryingProvider)(nil)

// Classify calls the inner provider under the retry policy.
func (p *RetryingProvider) Classify(ctx context.Context, title, body string) (*Classification, error) {
	var result *Classification
	err := p.call(ctx, func() error {
		var callErr error
		result, callErr = p.inner.Classify(ctx, title, body)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Embed calls the inner provider under the retry policy.
func (p *RetryingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := p.call(ctx, func() error {
		var callErr error
		result, callErr = p.inner.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *RetryingProvider) call(ctx context.Context, fn func() error) error {
	active, err := p.cooldown.Active(ctx, CooldownKey)
	if err != nil {
		p.logger.Warn("cooldown check failed", zap.Error(err))
	}
	if active {
		return ErrRateLimited
	}

	backoff := p.cfg.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrRateLimited) {
			if armErr := p.cooldown.Arm(ctx, CooldownKey, p.cfg.CooldownTTL); armErr != nil {
				p.logger.Warn("failed to arm cooldown", zap.Error(armErr))
			}
			return ErrRateLimited
		}
		if !errors.Is(lastErr, ErrUnavailable) {
			return lastErr
		}
		if attempt == p.cfg.MaxRetries {
			break
		}
		p.logger.Warn("triage provider unavailable, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff))
		p.sleep(backoff)
		backoff *= 2
		if backoff > p.cfg.MaxBackoff {
			backoff = p.cfg.MaxBackoff
		}
	}
	return lastErr
}

// defaultPriority keeps stub classifications inside the known range.
func defaultPriority(p domain.TicketPriority) domain.TicketPriority {
	if p < domain.TicketPriorityUrgent || p > domain.TicketPriorityLow {
		return domain.TicketPriorityMedium
	}
	return p
}
