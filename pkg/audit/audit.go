// Package audit defines the append-only event sink: C5 in the access
// control core. Within this module, pkg/admin records one event per
// successful mutation; the evaluator and the rate limiter do not write to
// the sink. The sink is external to the authorization decision itself —
// Record is fire-and-forget and ordered only within a tenant.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category classifies an audit event.
type Category string

const (
	CategoryAuthDecision    Category = "auth-decision"
	CategoryAdminMutation   Category = "admin-mutation"
	CategorySecurityAnomaly Category = "security-anomaly"
)

// Event is a single audit record.
type Event struct {
	ID         uuid.UUID
	TenantID   string
	When       time.Time
	Actor      string
	Category   Category
	EntityType string
	EntityID   string
	Details    map[string]any
}

// Sink is the append-only interface every audit consumer writes through.
// Implementations must not block the caller beyond enqueueing; ordering is
// only guaranteed within a single tenant.
type Sink interface {
	Record(ctx context.Context, event Event) error
	RecordBatch(ctx context.Context, events []Event) error
}

// NewEvent builds an Event with a fresh id and the current time.
func NewEvent(now time.Time, tenantID, actor string, category Category, entityType, entityID string, details map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		TenantID:   tenantID,
		When:       now,
		Actor:      actor,
		Category:   category,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
}
