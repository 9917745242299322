// Package worker consumes activity events and stores them in the audit log.
package worker

import (
	"context"
	"fmt"
	"time"

	"colectas/internal/amqp"
	"colectas/internal/cache"
	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/records"
)

const (
	resultStored    = "stored"
	resultDuplicate = "duplicate"
	resultDiscarded = "discarded"
	resultFailed    = "failed"
)

// AuditWorker appends consumed activity messages to the audit store.
// Recently stored message IDs are remembered so redeliveries are not
// written twice.
type AuditWorker struct {
	store   records.AuditStore
	metrics *metrics.Metrics
	logger  *log.Logger
	seen    *cache.LRUCache[struct{}]
}

func NewAuditWorker(store records.AuditStore, m *metrics.Metrics, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		store:   store,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentWorker),
		seen:    cache.NewLRUCache[struct{}](4096, time.Hour),
	}
}

// Seen exposes the redelivery cache so it can be registered for cleanup.
func (w *AuditWorker) Seen() *cache.LRUCache[struct{}] { return w.seen }

// HandleActivity stores one activity message. Messages that cannot be
// turned into an audit entry are discarded; store failures are returned
// so the delivery is retried.
func (w *AuditWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	if _, dup := w.seen.Get(msg.ID); dup {
		w.count(resultDuplicate)
		return nil
	}

	entry, err := msg.AuditEntry()
	if err != nil {
		w.count(resultDiscarded)
		w.logger.WarnContext(ctx, "Discarding malformed activity message",
			"id", msg.ID,
			log.FieldClubID, msg.ClubID,
			log.FieldError, err)
		return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
	}

	if err := w.store.AppendAudit(ctx, entry); err != nil {
		w.count(resultFailed)
		w.logger.ErrorContext(ctx, "Failed to append audit entry",
			"id", msg.ID,
			log.FieldClubID, entry.ClubID,
			log.FieldError, err)
		return fmt.Errorf("append audit entry: %w", err)
	}
	w.seen.Set(msg.ID, struct{}{})
	w.count(resultStored)

	w.logger.DebugContext(ctx, "Audit entry stored",
		"id", entry.ID,
		log.FieldClubID, entry.ClubID,
		log.FieldEntity, entry.Entidad,
		log.FieldOperation, entry.Accion,
		log.FieldRecordID, entry.EntidadID)
	return nil
}

func (w *AuditWorker) count(result string) {
	if w.metrics != nil {
		w.metrics.AuditEventsHandled.WithLabelValues(result).Inc()
	}
}
