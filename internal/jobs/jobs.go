// Package jobs provides the background execution machinery: an in-process
// at-least-once queue, an explicit job-type registry, the supervisor that
// wraps every execution, and the one-shot force-fail switch.
package jobs

import "context"

// Job type names. Handlers are bound to these at startup through the
// Registry, so dead-letter replay never resolves types at runtime.
const (
	TypeTriageTicket          = "ticket.triage"
	TypeClusterTicket         = "ticket.cluster"
	TypeDispatchNotification  = "notification.dispatch"
	TypeRedeliverNotification = "notification.redeliver"
)

// DefaultQueue is the queue name stamped on jobs without an explicit one.
const DefaultQueue = "default"

// Job is one unit of background work. Args are string-keyed so they can be
// captured verbatim into dead-letter records and replayed later.
type Job struct {
	Type  string
	Queue string
	Args  map[string]string
}

// Arg returns the named argument or the empty string.
func (j Job) Arg(key string) string {
	return j.Args[key]
}

// Handler executes one job.
type Handler func(ctx context.Context, job Job) error

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(Handler) Handler
