package payments

import (
	"context"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// AuditFact is one structured who/what/when record emitted by the pipeline.
// Sinks decide where facts end up; the pipeline only emits them.
type AuditFact struct {
	Action     string            `json:"action"`
	Provider   string            `json:"provider"`
	TenantID   uint              `json:"tenant_id,omitempty"`
	EntityKind string            `json:"entity_kind"`
	EntityRef  string            `json:"entity_ref"`
	Detail     map[string]string `json:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditSink receives facts from the ledger and finalizer. Implementations
// must be safe for concurrent use; a failing sink must never fail the
// pipeline, so callers ignore the returned error after logging.
type AuditSink interface {
	Record(ctx context.Context, fact AuditFact) error
}

// LogAuditSink writes facts to the application log. It is the fallback used
// when no queue-backed sink is configured.
type LogAuditSink struct{}

func (LogAuditSink) Record(_ context.Context, fact AuditFact) error {
	fiberlog.Infof("[Audit] action=%s provider=%s tenant=%d entity=%s ref=%s",
		fact.Action, fact.Provider, fact.TenantID, fact.EntityKind, fact.EntityRef)
	return nil
}

// NopAuditSink discards all facts.
type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, AuditFact) error { return nil }
