package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPersister is a Persister backed by a single append-only table.
// It is the distributed analogue of the reference service's audit.Writer
// flush target, generalized to the acserr/access-control domain instead
// of a fixed on-call schema.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps pool for use as a BufferedSink Persister.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// PersistBatch inserts every event in a single batched round trip.
func (p *PostgresPersister) PersistBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		detail, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		batch.Queue(
			`INSERT INTO acs_audit_log (id, tenant_id, occurred_at, actor, category, entity_type, entity_id, detail)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.TenantID, e.When, e.Actor, string(e.Category), e.EntityType, e.EntityID, detail,
		)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting audit log entry: %w", err)
		}
	}
	return nil
}
