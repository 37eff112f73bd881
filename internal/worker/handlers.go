// Package worker binds background job types to their handlers and owns the
// scheduled redelivery sweep.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/service"
	"github.com/spec-kit/dedup-service/internal/triage"
)

// Dependencies bundles everything the handlers need.
type Dependencies struct {
	Ingest      *service.IngestService
	Cluster     *service.ClusterService
	Dispatch    *service.DispatchService
	Queue       jobs.Queue
	Supervisor  *jobs.Supervisor
	CooldownTTL time.Duration
	Logger      *zap.Logger
}

// RegisterHandlers wires all job types into the registry, wrapped by the
// supervisor middleware.
func RegisterHandlers(registry *jobs.Registry, deps Dependencies) {
	mw := deps.Supervisor.Middleware()

	registry.Register(jobs.TypeTriageTicket, mw(triageHandler(deps)))
	registry.Register(jobs.TypeClusterTicket, mw(clusterHandler(deps)))
	registry.Register(jobs.TypeDispatchNotification, mw(deliverHandler(deps)))
	registry.Register(jobs.TypeRedeliverNotification, mw(deliverHandler(deps)))
}

func triageHandler(deps Dependencies) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		ticketID := job.Arg("ticket_id")
		if ticketID == "" {
			return fmt.Errorf("triage job missing ticket_id")
		}
		err := deps.Ingest.Triage(ctx, ticketID)
		if errors.Is(err, triage.ErrRateLimited) {
			// provider cooldown is active; come back after it expires
			// instead of burning queue retries
			deps.Logger.Warn("triage rate limited, rescheduling",
				zap.String("ticket_id", ticketID),
				zap.Duration("delay", deps.CooldownTTL))
			return deps.Queue.EnqueueIn(ctx, job, deps.CooldownTTL)
		}
		return err
	}
}

func clusterHandler(deps Dependencies) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		ticketID := job.Arg("ticket_id")
		if ticketID == "" {
			return fmt.Errorf("cluster job missing ticket_id")
		}
		return deps.Cluster.ClusterTicket(ctx, ticketID)
	}
}

func deliverHandler(deps Dependencies) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		notificationID := job.Arg("notification_id")
		if notificationID == "" {
			return fmt.Errorf("delivery job missing notification_id")
		}
		return deps.Dispatch.Deliver(ctx, notificationID)
	}
}
