package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	jobStarted    map[string]int64
	jobCompleted  map[string]int64
	jobFailed     map[string]int64
	notifications map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		jobStarted:    make(map[string]int64),
		jobCompleted:  make(map[string]int64),
		jobFailed:     make(map[string]int64),
		notifications: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordJobStarted counts a background job start.
func (m *Metrics) RecordJobStarted(jobType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobStarted[jobType]++
}

// RecordJobCompleted counts a successful background job.
func (m *Metrics) RecordJobCompleted(jobType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobCompleted[jobType]++
}

// RecordJobFailed counts a failed background job.
func (m *Metrics) RecordJobFailed(jobType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobFailed[jobType]++
}

// RecordNotification counts a notification outcome (sent/failed/held).
func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[outcome]++
}

// Snapshot returns a copy of all counters keyed by category.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests":      copyCounters(m.requestCount),
		"errors":        copyCounters(m.errorCount),
		"jobs_started":  copyCounters(m.jobStarted),
		"jobs_done":     copyCounters(m.jobCompleted),
		"jobs_failed":   copyCounters(m.jobFailed),
		"notifications": copyCounters(m.notifications),
	}
}

func copyCounters(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
