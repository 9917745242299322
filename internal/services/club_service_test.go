package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"colectas/internal/amqp"
	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/metrics"
	"colectas/internal/records/memory"
	"colectas/internal/session"
)

var (
	admin    = session.Session{UserID: "u-admin", ClubID: "club", Rol: core.RolAdmin}
	tesorero = session.Session{UserID: "u-tes", ClubID: "club", Rol: core.RolTesorero}
	fixedNow = time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ActivityMessage
	err  error
}

func (p *fakePublisher) PublishActivity(_ context.Context, msg *amqp.ActivityMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T, opts ...Option) (*ClubService, *memory.Store, *metrics.Metrics) {
	t.Helper()
	store := memory.New()
	if err := store.SaveClub(context.Background(), core.Club{ID: "club", Nombre: "Club Atlético"}); err != nil {
		t.Fatalf("SaveClub: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	opts = append([]Option{
		WithMetrics(m),
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(sequentialIDs()),
	}, opts...)
	return NewClubService(store, opts...), store, m
}

func mustMiembro(t *testing.T, s *ClubService, nombre string) core.Miembro {
	t.Helper()
	m, err := s.CreateMiembro(context.Background(), admin, core.Miembro{Nombre: nombre})
	if err != nil {
		t.Fatalf("CreateMiembro: %v", err)
	}
	return m
}

func TestCreateAporteResolvesSnapshotAndDefaults(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	ana := mustMiembro(t, s, "Ana")

	a, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroID: ana.ID, Cantidad: core.Money{Units: 5000}})
	if err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}
	if a.MiembroNombre != "Ana" {
		t.Errorf("MiembroNombre = %q, want Ana", a.MiembroNombre)
	}
	if a.ClubID != "club" {
		t.Errorf("ClubID = %q, want club", a.ClubID)
	}
	if a.Fecha != core.NewDate(2025, 4, 15) {
		t.Errorf("Fecha = %s, want 2025-04-15", a.Fecha.ISO())
	}
	if a.Estado != core.AporteAportado || a.MetodoPago != core.PagoEfectivo {
		t.Errorf("defaults = %s/%s", a.Estado, a.MetodoPago)
	}
}

func TestCreateAporteRejectsUnknownReferences(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroID: "nope", Cantidad: core.Money{Units: 1}})
	if !core.IsValidationError(err) {
		t.Errorf("unknown miembro: got %v, want validation error", err)
	}
	_, err = s.CreateAporte(ctx, tesorero, core.Aporte{MiembroNombre: "Eva", ColectaID: "nope", Cantidad: core.Money{Units: 1}})
	if !core.IsValidationError(err) {
		t.Errorf("unknown colecta: got %v, want validation error", err)
	}
	_, err = s.CreateAporte(ctx, tesorero, core.Aporte{MiembroNombre: "Eva", Cantidad: core.Money{Units: 0}})
	if !core.IsValidationError(err) {
		t.Errorf("zero cantidad: got %v, want validation error", err)
	}
}

func TestDeleteColectaCascadesInCachedLedger(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	col, err := s.CreateColecta(ctx, tesorero, core.Colecta{Nombre: "Torneo", Objetivo: core.Money{Units: 10000}})
	if err != nil {
		t.Fatalf("CreateColecta: %v", err)
	}
	if _, err := s.CreateAporte(ctx, tesorero, core.Aporte{ColectaID: col.ID, MiembroNombre: "Ana", Cantidad: core.Money{Units: 100}}); err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}
	if _, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroNombre: "Luis", Cantidad: core.Money{Units: 50}}); err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}
	// load into cache
	if _, err := s.Ledger(ctx, "club"); err != nil {
		t.Fatalf("Ledger: %v", err)
	}

	if err := s.DeleteColecta(ctx, tesorero, col.ID); err != nil {
		t.Fatalf("DeleteColecta: %v", err)
	}
	l, _ := s.Ledger(ctx, "club")
	if len(l.Colectas) != 0 || len(l.Aportes) != 1 || l.Aportes[0].MiembroNombre != "Luis" {
		t.Errorf("ledger after cascade = %d colectas, %+v", len(l.Colectas), l.Aportes)
	}
	if _, err := s.ColectaResumen(ctx, tesorero, col.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ColectaResumen after delete: %v", err)
	}
}

func TestFailedWriteRollsBackCachedLedger(t *testing.T) {
	s, store, m := newTestService(t)
	ctx := context.Background()

	if _, err := s.CreateGasto(ctx, tesorero, core.Gasto{Concepto: "Cancha", Categoria: "cancha", QuienPagoNombre: "Ana", Cantidad: core.Money{Units: 300}}); err != nil {
		t.Fatalf("CreateGasto: %v", err)
	}
	if _, err := s.Ledger(ctx, "club"); err != nil {
		t.Fatalf("Ledger: %v", err)
	}

	store.FailWrites = errors.New("disk full")
	_, err := s.CreateGasto(ctx, tesorero, core.Gasto{Concepto: "Viaje", Categoria: "viajes", QuienPagoNombre: "Ana", Cantidad: core.Money{Units: 900}})
	if err == nil {
		t.Fatal("CreateGasto succeeded with failing store")
	}

	l, _ := s.Ledger(ctx, "club")
	if len(l.Gastos) != 1 || l.Gastos[0].Concepto != "Cancha" {
		t.Errorf("gastos after rollback = %+v", l.Gastos)
	}
	if got := testutil.ToFloat64(m.Rollbacks.WithLabelValues(EntidadGasto)); got != 1 {
		t.Errorf("rollbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RecordsWritten.WithLabelValues(EntidadGasto, AccionCreate)); got != 1 {
		t.Errorf("records written = %v, want 1", got)
	}
}

func TestLedgerReturnsPrivateCopies(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	mustMiembro(t, s, "Ana")

	l1, _ := s.Ledger(ctx, "club")
	l1.Miembros[0].Nombre = "changed"
	l2, _ := s.Ledger(ctx, "club")
	if l2.Miembros[0].Nombre != "Ana" {
		t.Errorf("cached ledger was mutated through a snapshot")
	}
}

func TestDeleteMiembroKeepsSnapshots(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	ana := mustMiembro(t, s, "Ana")

	a, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroID: ana.ID, Cantidad: core.Money{Units: 100}})
	if err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}
	if err := s.DeleteMiembro(ctx, tesorero, ana.ID); err != nil {
		t.Fatalf("DeleteMiembro: %v", err)
	}
	got, err := s.GetAporte(ctx, tesorero, a.ID)
	if err != nil {
		t.Fatalf("GetAporte: %v", err)
	}
	if got.MiembroNombre != "Ana" {
		t.Errorf("snapshot = %q, want Ana", got.MiembroNombre)
	}
	// an update that keeps the deleted member reference keeps the snapshot
	got.Notas = "editado"
	got.MiembroID = ""
	got.MiembroNombre = "Ana"
	if _, err := s.UpdateAporte(ctx, tesorero, a.ID, got); err != nil {
		t.Errorf("UpdateAporte: %v", err)
	}
}

func TestRecordsOfDeletedMiembroStayEditable(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	ana := mustMiembro(t, s, "Ana")

	a, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroID: ana.ID, Cantidad: core.Money{Units: 100}})
	if err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}
	g, err := s.CreateGasto(ctx, tesorero, core.Gasto{Concepto: "Pelotas", Categoria: "material", QuienPagoID: ana.ID, Cantidad: core.Money{Units: 50}})
	if err != nil {
		t.Fatalf("CreateGasto: %v", err)
	}
	i, err := s.CreateIngreso(ctx, tesorero, core.Ingreso{Concepto: "Rifa", Fuente: "rifas", MiembroID: ana.ID, Cantidad: core.Money{Units: 30}})
	if err != nil {
		t.Fatalf("CreateIngreso: %v", err)
	}
	if err := s.DeleteMiembro(ctx, tesorero, ana.ID); err != nil {
		t.Fatalf("DeleteMiembro: %v", err)
	}

	a.Notas = "editado"
	a.MiembroNombre = ""
	got, err := s.UpdateAporte(ctx, tesorero, a.ID, a)
	if err != nil {
		t.Fatalf("UpdateAporte: %v", err)
	}
	if got.MiembroID != ana.ID || got.MiembroNombre != "Ana" {
		t.Errorf("aporte member = %q/%q, want %s/Ana", got.MiembroID, got.MiembroNombre, ana.ID)
	}

	g.Concepto = "Pelotas nuevas"
	if gotG, err := s.UpdateGasto(ctx, tesorero, g.ID, g); err != nil {
		t.Errorf("UpdateGasto: %v", err)
	} else if gotG.QuienPagoNombre != "Ana" {
		t.Errorf("gasto snapshot = %q", gotG.QuienPagoNombre)
	}

	i.Concepto = "Rifa de invierno"
	if _, err := s.UpdateIngreso(ctx, tesorero, i.ID, i); err != nil {
		t.Errorf("UpdateIngreso: %v", err)
	}

	// pointing at a different unknown member still fails
	a.MiembroID = "nope"
	if _, err := s.UpdateAporte(ctx, tesorero, a.ID, a); !core.IsValidationError(err) {
		t.Errorf("unknown miembro: got %v, want validation error", err)
	}
}

type blockingAportes struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAportes) ListAportes(ctx context.Context, clubID string) ([]core.Aporte, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.Store.ListAportes(ctx, clubID)
}

func TestWriteDuringLedgerLoadIsNotLost(t *testing.T) {
	_, mem, _ := newTestService(t)
	store := &blockingAportes{Store: mem, entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewClubService(store, WithClock(func() time.Time { return fixedNow }), WithIDs(sequentialIDs()))
	ctx := context.Background()

	loaded := make(chan error, 1)
	go func() {
		_, err := s.Ledger(ctx, "club")
		loaded <- err
	}()
	<-store.entered

	created := make(chan error, 1)
	go func() {
		_, err := s.CreateAporte(ctx, tesorero, core.Aporte{MiembroNombre: "Eva", Cantidad: core.Money{Units: 700}})
		created <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)

	if err := <-loaded; err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if err := <-created; err != nil {
		t.Fatalf("CreateAporte: %v", err)
	}

	stored, _ := mem.ListAportes(ctx, "club")
	listed, err := s.ListAportes(ctx, tesorero, filter.Criteria{})
	if err != nil {
		t.Fatalf("ListAportes: %v", err)
	}
	if len(stored) != 1 || len(listed) != 1 {
		t.Errorf("store has %d aportes, service lists %d", len(stored), len(listed))
	}
}

func TestUpdateAuditsFieldChanges(t *testing.T) {
	pub := &fakePublisher{}
	s, _, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	col, err := s.CreateColecta(ctx, tesorero, core.Colecta{Nombre: "Torneo", Objetivo: core.Money{Units: 100}})
	if err != nil {
		t.Fatalf("CreateColecta: %v", err)
	}
	col.Objetivo = core.Money{Units: 250}
	col.Estado = core.ColectaCerrada
	if _, err := s.UpdateColecta(ctx, tesorero, col.ID, col); err != nil {
		t.Fatalf("UpdateColecta: %v", err)
	}

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
	e, err := pub.msgs[1].AuditEntry()
	if err != nil {
		t.Fatalf("AuditEntry: %v", err)
	}
	if e.Accion != AccionUpdate || e.Entidad != EntidadColecta || e.UsuarioID != "u-tes" {
		t.Errorf("entry = %+v", e)
	}
	fc, ok := e.Details.(core.FieldChanges)
	if !ok {
		t.Fatalf("details = %T, want FieldChanges", e.Details)
	}
	want := []core.FieldChange{
		{Field: "objetivo", From: "100", To: "250"},
		{Field: "estado", From: "activa", To: "cerrada"},
	}
	if fmt.Sprint(fc.Changes) != fmt.Sprint(want) {
		t.Errorf("changes = %v, want %v", fc.Changes, want)
	}
}

func TestAuditFallsBackToStore(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s, store, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	m := mustMiembro(t, s, "Ana")
	entries, err := store.ListAudit(ctx, "club", 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 1 || entries[0].EntidadID != m.ID || entries[0].Accion != AccionCreate {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestUsuariosRequireAdmin(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.CreateUsuario(ctx, tesorero, core.Usuario{Email: "x@club.org", Rol: core.RolTesorero}); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("tesorero CreateUsuario: %v", err)
	}
	if _, err := s.ListAudit(ctx, tesorero, 10); !errors.Is(err, session.ErrForbidden) {
		t.Errorf("tesorero ListAudit: %v", err)
	}

	u, err := s.CreateUsuario(ctx, admin, core.Usuario{Email: " Tes@Club.org ", Nombre: "Tes", Rol: core.RolTesorero})
	if err != nil {
		t.Fatalf("CreateUsuario: %v", err)
	}
	if u.Email != "tes@club.org" {
		t.Errorf("email = %q", u.Email)
	}
	if err := s.DeleteUsuario(ctx, admin, admin.UserID); !core.IsValidationError(err) {
		t.Errorf("self delete: %v", err)
	}
	if err := s.DeleteUsuario(ctx, admin, u.ID); err != nil {
		t.Fatalf("DeleteUsuario: %v", err)
	}

	entries, _ := s.ListAudit(ctx, admin, 0)
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	del, ok := entries[0].Details.(core.UserDeleted)
	if !ok || del.Email != "tes@club.org" || del.Nombre != "Tes" {
		t.Errorf("delete details = %#v", entries[0].Details)
	}
}

func TestListGastosFilters(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	for _, g := range []core.Gasto{
		{Concepto: "Cancha abril", Categoria: "Cancha", QuienPagoNombre: "Ana", Cantidad: core.Money{Units: 1}, Fecha: core.NewDate(2025, 4, 2)},
		{Concepto: "Cancha marzo", Categoria: "cancha", QuienPagoNombre: "Ana", Cantidad: core.Money{Units: 1}, Fecha: core.NewDate(2025, 3, 2)},
		{Concepto: "Micro", Categoria: "viajes", QuienPagoNombre: "Luis", Cantidad: core.Money{Units: 1}, Fecha: core.NewDate(2025, 4, 3)},
	} {
		if _, err := s.CreateGasto(ctx, tesorero, g); err != nil {
			t.Fatalf("CreateGasto: %v", err)
		}
	}

	got, err := s.ListGastos(ctx, tesorero, filter.Criteria{Category: "CANCHA", Period: filter.PeriodMonth})
	if err != nil {
		t.Fatalf("ListGastos: %v", err)
	}
	if len(got) != 1 || got[0].Concepto != "Cancha abril" {
		t.Errorf("filtered = %+v", got)
	}
}

func TestDashboardAndPublicColecta(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	col, _ := s.CreateColecta(ctx, tesorero, core.Colecta{Nombre: "Torneo", Objetivo: core.Money{Units: 1000}})
	s.CreateAporte(ctx, tesorero, core.Aporte{ColectaID: col.ID, MiembroNombre: "Ana", Cantidad: core.Money{Units: 750}})
	s.CreateAporte(ctx, tesorero, core.Aporte{ColectaID: col.ID, MiembroNombre: "Luis", Cantidad: core.Money{Units: 200}, Estado: core.AporteComprometido})

	r, err := s.PublicColecta(ctx, "club", col.ID)
	if err != nil {
		t.Fatalf("PublicColecta: %v", err)
	}
	if r.Porcentaje != 75 || r.Comprometido.Units != 200 || r.Faltante.Units != 250 {
		t.Errorf("resumen = %+v", r)
	}
	if _, err := s.PublicColecta(ctx, "other", col.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other club: %v", err)
	}
	if _, cached := s.LedgerCache().Get("other"); cached {
		t.Error("unknown club ledger was cached")
	}

	d, err := s.Dashboard(ctx, tesorero)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalAportado.Units != 750 || d.ColectasActivas != 1 {
		t.Errorf("dashboard = %+v", d)
	}
}
