package dto

import (
	"time"

	"github.com/spec-kit/dedup-service/internal/domain"
)

// OperatorLoginRequest payload.
type OperatorLoginRequest struct {
	OperatorID string `json:"operator_id"`
	Secret     string `json:"secret"`
}

// OperatorLoginResponse payload.
type OperatorLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DeadLetterResponse is the external dead-letter shape.
type DeadLetterResponse struct {
	ID         string                  `json:"id"`
	JobType    string                  `json:"job_type"`
	Args       map[string]string       `json:"args"`
	ErrorClass string                  `json:"error_class"`
	ErrorText  string                  `json:"error_text"`
	Queue      string                  `json:"queue"`
	Status     domain.DeadLetterStatus `json:"status"`
	FailedAt   time.Time               `json:"failed_at"`
}

// NewDeadLetterResponse maps a domain dead letter.
func NewDeadLetterResponse(record *domain.DeadLetterRecord) DeadLetterResponse {
	return DeadLetterResponse{
		ID:         record.ID,
		JobType:    record.JobType,
		Args:       record.Args,
		ErrorClass: record.ErrorClass,
		ErrorText:  record.ErrorText,
		Queue:      record.Queue,
		Status:     record.Status,
		FailedAt:   record.FailedAt,
	}
}

// ForceFailRequest arms a one-shot failure for a job type.
type ForceFailRequest struct {
	TTLMinutes int `json:"ttl_minutes"`
}

// ForceFailStatusResponse reports whether the flag is armed.
type ForceFailStatusResponse struct {
	JobType string `json:"job_type"`
	Armed   bool   `json:"armed"`
}
