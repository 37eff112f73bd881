// Package memory provides in-memory repository implementations. They back
// the service when no Postgres DSN is configured and serve as fixtures in
// tests. All implementations are safe for concurrent use.
package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound mirrors the driver sentinel so callers handle both backends
// the same way.
var ErrNotFound = pgx.ErrNoRows

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFloats(in []float32) []float32 {
	if in == nil {
		return nil
	}
	out := make([]float32, len(in))
	copy(out, in)
	return out
}

func cloneTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	t := *in
	return &t
}

func cloneStringPtr(in *string) *string {
	if in == nil {
		return nil
	}
	s := *in
	return &s
}
