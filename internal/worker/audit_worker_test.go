package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"colectas/internal/amqp"
	"colectas/internal/core"
	"colectas/internal/metrics"
	"colectas/internal/records/memory"
)

func activity(t *testing.T, id string, details core.AuditDetails) *amqp.ActivityMessage {
	t.Helper()
	msg, err := amqp.NewActivityMessage(core.AuditEntry{
		ID:        id,
		ClubID:    "club",
		UsuarioID: "u1",
		Accion:    "delete",
		Entidad:   "usuario",
		EntidadID: "u2",
		Details:   details,
		CreatedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewActivityMessage: %v", err)
	}
	return msg
}

func TestHandleActivityStoresEntry(t *testing.T) {
	store := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	w := NewAuditWorker(store, m, nil)
	ctx := context.Background()

	msg := activity(t, "a1", core.UserDeleted{UsuarioID: "u2", Email: "x@club.org", Nombre: "X"})
	if err := w.HandleActivity(ctx, msg); err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	// redelivery
	if err := w.HandleActivity(ctx, msg); err != nil {
		t.Fatalf("HandleActivity redelivery: %v", err)
	}

	entries, err := store.ListAudit(ctx, "club", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if d, ok := entries[0].Details.(core.UserDeleted); !ok || d.Email != "x@club.org" {
		t.Errorf("details = %#v", entries[0].Details)
	}
	if got := testutil.ToFloat64(m.AuditEventsHandled.WithLabelValues(resultStored)); got != 1 {
		t.Errorf("stored = %v", got)
	}
	if got := testutil.ToFloat64(m.AuditEventsHandled.WithLabelValues(resultDuplicate)); got != 1 {
		t.Errorf("duplicate = %v", got)
	}
}

func TestHandleActivityDiscardsUnknownDetails(t *testing.T) {
	store := memory.New()
	w := NewAuditWorker(store, nil, nil)

	msg := activity(t, "a2", nil)
	msg.Details = json.RawMessage(`{"type":"password_changed","data":{}}`)

	err := w.HandleActivity(context.Background(), msg)
	if !errors.Is(err, amqp.ErrDiscard) {
		t.Fatalf("err = %v, want ErrDiscard", err)
	}
	entries, _ := store.ListAudit(context.Background(), "club", 0)
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestHandleActivityStoreFailureIsRetried(t *testing.T) {
	store := memory.New()
	store.FailWrites = errors.New("database is locked")
	w := NewAuditWorker(store, nil, nil)
	ctx := context.Background()

	msg := activity(t, "a3", nil)
	err := w.HandleActivity(ctx, msg)
	if err == nil || errors.Is(err, amqp.ErrDiscard) {
		t.Fatalf("err = %v, want retryable error", err)
	}

	store.FailWrites = nil
	if err := w.HandleActivity(ctx, msg); err != nil {
		t.Fatalf("retry: %v", err)
	}
	entries, _ := store.ListAudit(ctx, "club", 0)
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}
}
