package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/channel"
	"github.com/spec-kit/dedup-service/internal/config"
	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/repository/memory"
	"github.com/spec-kit/dedup-service/internal/triage"
)

// recordingQueue captures enqueued jobs instead of running them.
type recordingQueue struct {
	mu      sync.Mutex
	jobs    []jobs.Job
	delayed []jobs.Job
}

func (q *recordingQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) EnqueueIn(ctx context.Context, job jobs.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed = append(q.delayed, job)
	return nil
}

func (q *recordingQueue) jobsOfType(jobType string) []jobs.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []jobs.Job
	for _, job := range append(append([]jobs.Job{}, q.jobs...), q.delayed...) {
		if job.Type == jobType {
			out = append(out, job)
		}
	}
	return out
}

// flakyAdapter fails a configured number of sends before succeeding.
type flakyAdapter struct {
	mu        sync.Mutex
	failures  int
	sent      []channel.Payload
	attempted int
}

func (a *flakyAdapter) Send(ctx context.Context, payload channel.Payload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempted++
	if a.failures > 0 {
		a.failures--
		return context.DeadlineExceeded
	}
	a.sent = append(a.sent, payload)
	return nil
}

type stores struct {
	tickets       *memory.TicketStore
	groups        *memory.GroupStore
	notifications *memory.NotificationStore
	content       *memory.ContentEntryStore
	identities    *memory.IdentityStore
	deadLetters   *memory.DeadLetterStore
}

func newStores() stores {
	return stores{
		tickets:       memory.NewTicketStore(),
		groups:        memory.NewGroupStore(),
		notifications: memory.NewNotificationStore(),
		content:       memory.NewContentEntryStore(),
		identities:    memory.NewIdentityStore(),
		deadLetters:   memory.NewDeadLetterStore(),
	}
}

type fixture struct {
	stores  stores
	queue   *recordingQueue
	adapter *flakyAdapter

	ingest   *IngestService
	cluster  *ClusterService
	groups   *GroupService
	surge    *SurgeService
	dispatch *DispatchService
	content  *ContentService
}

func defaultTestConfig() *config.Config {
	return &config.Config{
		Clustering: config.ClusteringConfig{
			SimilarityThreshold: 0.82,
			LookbackHours:       24,
			CandidateCap:        200,
			GroupNameMaxLen:     60,
		},
		Surge: config.SurgeConfig{
			ApprovalThreshold: 5,
			WindowSeconds:     300,
		},
		Dispatch: config.DispatchConfig{
			MaxRetries:          3,
			RetryBackoffSeconds: 30,
			HTTPTimeoutSeconds:  10,
		},
	}
}

func newFixture(cfg *config.Config) *fixture {
	if cfg == nil {
		cfg = defaultTestConfig()
	}
	logger := zap.NewNop()
	st := newStores()
	queue := &recordingQueue{}
	dispatcher := events.NewInMemoryDispatcher()
	adapter := &flakyAdapter{}

	adapters := channel.NewAdapterSet()
	for _, ch := range []domain.Channel{domain.ChannelChat, domain.ChannelThreads, domain.ChannelMessenger, domain.ChannelWebhook} {
		adapters.Register(ch, adapter)
	}

	ingest := NewIngestService(IngestDependencies{
		TicketRepo:   st.tickets,
		IdentityRepo: st.identities,
		Provider:     triage.NewStubProvider(),
		Queue:        queue,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	surge := NewSurgeService(SurgeDependencies{
		ContentRepo:      st.content,
		NotificationRepo: st.notifications,
		Queue:            queue,
		Dispatcher:       dispatcher,
		Config:           cfg.Surge,
		Logger:           logger,
	})
	dispatch := NewDispatchService(DispatchDependencies{
		NotificationRepo: st.notifications,
		TicketRepo:       st.tickets,
		IdentityRepo:     st.identities,
		Adapters:         adapters,
		Surge:            surge,
		Queue:            queue,
		Dispatcher:       dispatcher,
		Metrics:          observability.NewMetrics(),
		Config:           cfg.Dispatch,
		Logger:           logger,
	})
	groups := NewGroupService(GroupDependencies{
		GroupRepo:    st.groups,
		TicketRepo:   st.tickets,
		ContentRepo:  st.content,
		IdentityRepo: st.identities,
		Dispatch:     dispatch,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	cluster := NewClusterService(ClusterDependencies{
		TicketRepo: st.tickets,
		Groups:     groups,
		Config:     cfg.Clustering,
		Logger:     logger,
	})
	content := NewContentService(ContentDependencies{
		ContentRepo: st.content,
		TicketRepo:  st.tickets,
		Dispatch:    dispatch,
		Logger:      logger,
	})

	return &fixture{
		stores:   st,
		queue:    queue,
		adapter:  adapter,
		ingest:   ingest,
		cluster:  cluster,
		groups:   groups,
		surge:    surge,
		dispatch: dispatch,
		content:  content,
	}
}

func (f *fixture) seedTicket(title string, ticket *domain.Ticket) *domain.Ticket {
	if ticket.Title == "" {
		ticket.Title = title
	}
	if ticket.Channel == "" {
		ticket.Channel = domain.ChannelChat
	}
	if ticket.ReporterID == "" {
		ticket.ReporterID = "reporter-1"
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if err := f.stores.tickets.Create(context.Background(), ticket); err != nil {
		panic(err)
	}
	return ticket
}

func (f *fixture) seedIdentity(reporterID string, ch domain.Channel, address string) {
	if err := f.stores.identities.Upsert(context.Background(), &domain.ChannelIdentity{
		ReporterID: reporterID,
		Channel:    ch,
		Address:    address,
	}); err != nil {
		panic(err)
	}
}
