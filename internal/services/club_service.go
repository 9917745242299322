// Package services holds the club operations behind the HTTP API: record
// writes with validation and auditing, and report generation.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"colectas/internal/amqp"
	"colectas/internal/cache"
	"colectas/internal/core"
	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/optimistic"
	"colectas/internal/records"
	"colectas/internal/session"
)

// Audit actions.
const (
	AccionCreate = "create"
	AccionUpdate = "update"
	AccionDelete = "delete"
	AccionPago   = "pago"
)

// Entity names used in audit entries and metrics.
const (
	EntidadColecta = "colecta"
	EntidadAporte  = "aporte"
	EntidadGasto   = "gasto"
	EntidadIngreso = "ingreso"
	EntidadDeuda   = "deuda"
	EntidadMiembro = "miembro"
	EntidadUsuario = "usuario"
)

// Publisher delivers activity events to the audit worker.
type Publisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

type ledgerState = optimistic.State[*core.Ledger]

// ClubService validates and persists club records. Loaded ledgers are kept
// in an LRU cache and updated optimistically; a failed store write restores
// the cached snapshot.
type ClubService struct {
	store     records.Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	ledgers   *cache.LRUCache[*ledgerState]
	now       func() time.Time
	newID     func() string

	payments chanMutex
	loads    clubLocks
}

type Option func(*ClubService)

func WithPublisher(p Publisher) Option { return func(s *ClubService) { s.publisher = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *ClubService) { s.metrics = m } }

func WithLogger(l *log.Logger) Option { return func(s *ClubService) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *ClubService) { s.now = now } }

func WithIDs(newID func() string) Option { return func(s *ClubService) { s.newID = newID } }

// WithLedgerCache replaces the default ledger cache.
func WithLedgerCache(c *cache.LRUCache[*ledgerState]) Option {
	return func(s *ClubService) { s.ledgers = c }
}

// NewLedgerCache builds a cache suitable for WithLedgerCache.
func NewLedgerCache(size int, ttl time.Duration) *cache.LRUCache[*ledgerState] {
	return cache.NewLRUCache[*ledgerState](size, ttl)
}

func NewClubService(store records.Store, opts ...Option) *ClubService {
	s := &ClubService{
		store:    store,
		logger:   log.Discard(),
		ledgers:  NewLedgerCache(64, 5*time.Minute),
		now:      time.Now,
		newID:    uuid.NewString,
		payments: newChanMutex(),
		loads:    clubLocks{locks: make(map[string]chanMutex)},
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentClub)
	return s
}

// LedgerCache exposes the cache so it can be registered for cleanup.
func (s *ClubService) LedgerCache() *cache.LRUCache[*ledgerState] { return s.ledgers }

// Ledger returns a private snapshot of every record of clubID.
//
// A cache miss loads the ledger while holding the club's load lock, which
// uncached writes also take, so a write never lands between the load and
// the cache fill.
func (s *ClubService) Ledger(ctx context.Context, clubID string) (*core.Ledger, error) {
	if st, ok := s.ledgers.Get(clubID); ok {
		return st.Get(), nil
	}
	mu := s.loads.forClub(clubID)
	if err := mu.Lock(ctx); err != nil {
		return nil, err
	}
	defer mu.Unlock()
	if st, ok := s.ledgers.Get(clubID); ok {
		return st.Get(), nil
	}
	l, err := LoadLedger(ctx, s.store, clubID)
	if err != nil {
		return nil, err
	}
	s.ledgers.Set(clubID, optimistic.NewState(l, (*core.Ledger).Clone))
	return l.Clone(), nil
}

// Invalidate drops the cached ledger of clubID.
func (s *ClubService) Invalidate(clubID string) { s.ledgers.Delete(clubID) }

// LoadLedger reads every record list of a club concurrently.
func LoadLedger(ctx context.Context, store records.Store, clubID string) (*core.Ledger, error) {
	l := &core.Ledger{ClubID: clubID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { l.Colectas, err = store.ListColectas(gctx, clubID); return })
	g.Go(func() (err error) { l.Aportes, err = store.ListAportes(gctx, clubID); return })
	g.Go(func() (err error) { l.Gastos, err = store.ListGastos(gctx, clubID); return })
	g.Go(func() (err error) { l.Ingresos, err = store.ListIngresos(gctx, clubID); return })
	g.Go(func() (err error) { l.Deudas, err = store.ListDeudas(gctx, clubID); return })
	g.Go(func() (err error) { l.Miembros, err = store.ListMiembros(gctx, clubID); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

// write issues a store write. When the club ledger is cached, mutate is
// applied to it first and rolled back if the write fails.
func (s *ClubService) write(ctx context.Context, clubID, entity, accion string, mutate func(*core.Ledger), write func(context.Context) error) error {
	err := s.applyWrite(ctx, clubID, mutate, write)
	if err != nil {
		var rb *optimistic.RollbackError
		if errors.As(err, &rb) && !errors.Is(err, core.ErrNotFound) {
			s.logger.WarnContext(ctx, "Ledger update rolled back",
				log.FieldClubID, clubID,
				log.FieldEntity, entity,
				log.FieldOperation, accion,
				log.FieldError, rb.Err)
			if s.metrics != nil {
				s.metrics.Rollbacks.WithLabelValues(entity).Inc()
			}
		}
		return fmt.Errorf("%s %s: %w", accion, entity, err)
	}
	if s.metrics != nil {
		s.metrics.RecordsWritten.WithLabelValues(entity, accion).Inc()
	}
	return nil
}

func (s *ClubService) applyWrite(ctx context.Context, clubID string, mutate func(*core.Ledger), write func(context.Context) error) error {
	apply := func(st *ledgerState) error {
		return st.Apply(ctx, func(l *core.Ledger) *core.Ledger { mutate(l); return l }, write)
	}
	if st, ok := s.ledgers.Get(clubID); ok {
		return apply(st)
	}
	mu := s.loads.forClub(clubID)
	if err := mu.Lock(ctx); err != nil {
		return err
	}
	defer mu.Unlock()
	if st, ok := s.ledgers.Get(clubID); ok {
		return apply(st)
	}
	return write(ctx)
}

func (s *ClubService) recordAmount(entity string, m core.Money) {
	if s.metrics != nil {
		s.metrics.AmountRecorded.WithLabelValues(entity).Add(float64(m.Units))
	}
}

// audit publishes the activity for the audit worker, falling back to a
// direct store append when no publisher is configured or publishing fails.
// Audit failures never fail the operation that triggered them.
func (s *ClubService) audit(ctx context.Context, sess session.Session, accion, entidad, id string, details core.AuditDetails) {
	e := core.AuditEntry{
		ID:        s.newID(),
		ClubID:    sess.ClubID,
		UsuarioID: sess.UserID,
		Accion:    accion,
		Entidad:   entidad,
		EntidadID: id,
		Details:   details,
		CreatedAt: s.now().UTC(),
	}
	sl := log.NewStructuredLogger(s.logger)
	sl.LogRecordWritten(ctx, accion, sess.ClubID, entidad, id, 0)
	if s.publisher != nil {
		msg, err := amqp.NewActivityMessage(e)
		if err == nil {
			if err = s.publisher.PublishActivity(ctx, msg); err == nil {
				return
			}
		}
		s.logger.WarnContext(ctx, "Publishing activity failed, writing audit entry directly",
			log.FieldClubID, sess.ClubID, log.FieldError, err)
	}
	if err := s.store.AppendAudit(ctx, e); err != nil {
		sl.LogError(ctx, "Failed to append audit entry", err, log.ComponentClub, accion,
			log.NewFields().WithRecord(sess.ClubID, entidad, id))
	}
}

// ListAudit returns the newest audit entries of the caller's club. Admins only.
func (s *ClubService) ListAudit(ctx context.Context, sess session.Session, limit int) ([]core.AuditEntry, error) {
	if !sess.IsAdmin() {
		return nil, session.ErrForbidden
	}
	return s.store.ListAudit(ctx, sess.ClubID, limit)
}

func (s *ClubService) today() core.Date {
	t := s.now()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

// chanMutex is a mutex whose Lock honors context cancellation.
type chanMutex chan struct{}

func newChanMutex() chanMutex { return make(chanMutex, 1) }

func (m chanMutex) Lock(ctx context.Context) error {
	select {
	case m <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m chanMutex) Unlock() { <-m }

// clubLocks hands out one chanMutex per club.
type clubLocks struct {
	mu    sync.Mutex
	locks map[string]chanMutex
}

func (c *clubLocks) forClub(clubID string) chanMutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.locks[clubID]
	if !ok {
		m = newChanMutex()
		c.locks[clubID] = m
	}
	return m
}

func replaceByID[T any](items []T, id func(T) string, v T) []T {
	for i := range items {
		if id(items[i]) == id(v) {
			items[i] = v
			return items
		}
	}
	return items
}

func removeWhere[T any](items []T, drop func(T) bool) []T {
	out := items[:0:0]
	for _, v := range items {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
