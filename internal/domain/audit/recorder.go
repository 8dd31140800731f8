// Package audit defines the audit trail contract for orchestrated mutations.
// The postgres-backed recorder lives in infrastructure.
package audit

import (
	"context"

	"celltrade/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionOpen   Action = "open"
	ActionClose  Action = "close"
)

// Entry describes one audited mutation.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action

	// Changes is an arbitrary JSON-serializable payload (old/new values,
	// amounts, affected IMEIs).
	Changes any
}

// Recorder persists audit entries. Recording is best-effort: services log a
// warning on failure but never roll back the business transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries. Used in tests.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(ctx context.Context, entry Entry) error { return nil }
