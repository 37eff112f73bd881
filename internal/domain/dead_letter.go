package domain

import "time"

// DeadLetterStatus enumerates triage states for dead letters.
type DeadLetterStatus string

const (
	DeadLetterStatusUnresolved DeadLetterStatus = "UNRESOLVED"
	DeadLetterStatusResolved   DeadLetterStatus = "RESOLVED"
	DeadLetterStatusRetried    DeadLetterStatus = "RETRIED"
)

// DeadLetterRecord captures a background job that failed terminally, either
// by exhausting the queue's retries or through an explicit forced failure.
// Records are immutable apart from their triage status.
type DeadLetterRecord struct {
	ID         string
	JobType    string
	Args       map[string]string
	ErrorClass string
	ErrorText  string
	Queue      string
	Status     DeadLetterStatus
	FailedAt   time.Time
	UpdatedAt  time.Time
}
