// Package memory is an in-process record store used for development and as
// the fake behind service and handler tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"colectas/internal/core"
)

// collection keeps the records of one entity, in insertion order, per club.
type collection[T any] struct {
	byClub map[string][]T
	id     func(T) string
	club   func(T) string
}

func newCollection[T any](id, club func(T) string) collection[T] {
	return collection[T]{byClub: map[string][]T{}, id: id, club: club}
}

func (c *collection[T]) list(clubID string) []T {
	return append([]T(nil), c.byClub[clubID]...)
}

func (c *collection[T]) index(clubID, id string) int {
	for i, v := range c.byClub[clubID] {
		if c.id(v) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) get(clubID, id string) (T, error) {
	var zero T
	i := c.index(clubID, id)
	if i < 0 {
		return zero, core.ErrNotFound
	}
	return c.byClub[clubID][i], nil
}

func (c *collection[T]) create(v T) {
	k := c.club(v)
	c.byClub[k] = append(c.byClub[k], v)
}

func (c *collection[T]) update(v T) error {
	k := c.club(v)
	i := c.index(k, c.id(v))
	if i < 0 {
		return core.ErrNotFound
	}
	c.byClub[k][i] = v
	return nil
}

func (c *collection[T]) delete(clubID, id string) error {
	i := c.index(clubID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	items := c.byClub[clubID]
	c.byClub[clubID] = append(items[:i:i], items[i+1:]...)
	return nil
}

func (c *collection[T]) deleteWhere(clubID string, drop func(T) bool) {
	var kept []T
	for _, v := range c.byClub[clubID] {
		if !drop(v) {
			kept = append(kept, v)
		}
	}
	c.byClub[clubID] = kept
}

type Store struct {
	mu       sync.Mutex
	clubs    map[string]core.Club
	colectas collection[core.Colecta]
	aportes  collection[core.Aporte]
	gastos   collection[core.Gasto]
	ingresos collection[core.Ingreso]
	deudas   collection[core.Deuda]
	pagos    collection[core.PagoDeuda]
	miembros collection[core.Miembro]
	usuarios collection[core.Usuario]
	audit    collection[core.AuditEntry]

	// FailWrites, when set, is returned by every write. Tests use it to
	// exercise rollback paths.
	FailWrites error
}

func New() *Store {
	return &Store{
		clubs:    map[string]core.Club{},
		colectas: newCollection(func(v core.Colecta) string { return v.ID }, func(v core.Colecta) string { return v.ClubID }),
		aportes:  newCollection(func(v core.Aporte) string { return v.ID }, func(v core.Aporte) string { return v.ClubID }),
		gastos:   newCollection(func(v core.Gasto) string { return v.ID }, func(v core.Gasto) string { return v.ClubID }),
		ingresos: newCollection(func(v core.Ingreso) string { return v.ID }, func(v core.Ingreso) string { return v.ClubID }),
		deudas:   newCollection(func(v core.Deuda) string { return v.ID }, func(v core.Deuda) string { return v.ClubID }),
		pagos:    newCollection(func(v core.PagoDeuda) string { return v.ID }, func(v core.PagoDeuda) string { return v.ClubID }),
		miembros: newCollection(func(v core.Miembro) string { return v.ID }, func(v core.Miembro) string { return v.ClubID }),
		usuarios: newCollection(func(v core.Usuario) string { return v.ID }, func(v core.Usuario) string { return v.ClubID }),
		audit:    newCollection(func(v core.AuditEntry) string { return v.ID }, func(v core.AuditEntry) string { return v.ClubID }),
	}
}

// NewFromFiles returns a store with one club whose members are read from
// seed_miembros.txt in base, one name per line. Blank lines and lines
// starting with # are ignored.
func NewFromFiles(base, clubID, clubNombre string) *Store {
	s := New()
	s.clubs[clubID] = core.Club{ID: clubID, Nombre: clubNombre}
	for _, nombre := range readLines(filepath.Join(base, "seed_miembros.txt")) {
		s.miembros.create(core.Miembro{ID: uuid.NewString(), ClubID: clubID, Nombre: nombre, Estado: core.MiembroActivo})
	}
	return s
}

func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	return fn()
}

func (s *Store) GetClub(_ context.Context, id string) (core.Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clubs[id]
	if !ok {
		return core.Club{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) SaveClub(_ context.Context, c core.Club) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.write(func() error { s.clubs[c.ID] = c; return nil })
}

func (s *Store) ListColectas(_ context.Context, clubID string) ([]core.Colecta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colectas.list(clubID), nil
}

func (s *Store) GetColecta(_ context.Context, clubID, id string) (core.Colecta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colectas.get(clubID, id)
}

func (s *Store) CreateColecta(_ context.Context, c core.Colecta) error {
	return s.write(func() error { s.colectas.create(c); return nil })
}

func (s *Store) UpdateColecta(_ context.Context, c core.Colecta) error {
	return s.write(func() error { return s.colectas.update(c) })
}

func (s *Store) DeleteColecta(_ context.Context, clubID, id string) error {
	return s.write(func() error {
		if err := s.colectas.delete(clubID, id); err != nil {
			return err
		}
		s.aportes.deleteWhere(clubID, func(a core.Aporte) bool { return a.ColectaID == id })
		s.gastos.deleteWhere(clubID, func(g core.Gasto) bool { return g.ColectaID == id })
		return nil
	})
}

func (s *Store) ListAportes(_ context.Context, clubID string) ([]core.Aporte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aportes.list(clubID), nil
}

func (s *Store) GetAporte(_ context.Context, clubID, id string) (core.Aporte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aportes.get(clubID, id)
}

func (s *Store) CreateAporte(_ context.Context, a core.Aporte) error {
	return s.write(func() error { s.aportes.create(a); return nil })
}

func (s *Store) UpdateAporte(_ context.Context, a core.Aporte) error {
	return s.write(func() error { return s.aportes.update(a) })
}

func (s *Store) DeleteAporte(_ context.Context, clubID, id string) error {
	return s.write(func() error { return s.aportes.delete(clubID, id) })
}

func (s *Store) ListGastos(_ context.Context, clubID string) ([]core.Gasto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gastos.list(clubID), nil
}

func (s *Store) GetGasto(_ context.Context, clubID, id string) (core.Gasto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gastos.get(clubID, id)
}

func (s *Store) CreateGasto(_ context.Context, g core.Gasto) error {
	return s.write(func() error { s.gastos.create(g); return nil })
}

func (s *Store) UpdateGasto(_ context.Context, g core.Gasto) error {
	return s.write(func() error { return s.gastos.update(g) })
}

func (s *Store) DeleteGasto(_ context.Context, clubID, id string) error {
	return s.write(func() error { return s.gastos.delete(clubID, id) })
}

func (s *Store) ListIngresos(_ context.Context, clubID string) ([]core.Ingreso, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingresos.list(clubID), nil
}

func (s *Store) GetIngreso(_ context.Context, clubID, id string) (core.Ingreso, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingresos.get(clubID, id)
}

func (s *Store) CreateIngreso(_ context.Context, i core.Ingreso) error {
	return s.write(func() error { s.ingresos.create(i); return nil })
}

func (s *Store) UpdateIngreso(_ context.Context, i core.Ingreso) error {
	return s.write(func() error { return s.ingresos.update(i) })
}

func (s *Store) DeleteIngreso(_ context.Context, clubID, id string) error {
	return s.write(func() error { return s.ingresos.delete(clubID, id) })
}

func (s *Store) ListDeudas(_ context.Context, clubID string) ([]core.Deuda, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deudas.list(clubID), nil
}

func (s *Store) GetDeuda(_ context.Context, clubID, id string) (core.Deuda, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deudas.get(clubID, id)
}

func (s *Store) CreateDeuda(_ context.Context, d core.Deuda) error {
	return s.write(func() error { s.deudas.create(d); return nil })
}

func (s *Store) UpdateDeuda(_ context.Context, d core.Deuda) error {
	return s.write(func() error { return s.deudas.update(d) })
}

func (s *Store) DeleteDeuda(_ context.Context, clubID, id string) error {
	return s.write(func() error {
		if err := s.deudas.delete(clubID, id); err != nil {
			return err
		}
		s.pagos.deleteWhere(clubID, func(p core.PagoDeuda) bool { return p.DeudaID == id })
		return nil
	})
}

func (s *Store) RecordPago(_ context.Context, d core.Deuda, p core.PagoDeuda) error {
	return s.write(func() error {
		if err := s.deudas.update(d); err != nil {
			return err
		}
		s.pagos.create(p)
		return nil
	})
}

func (s *Store) ListPagos(_ context.Context, clubID, deudaID string) ([]core.PagoDeuda, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.PagoDeuda
	for _, p := range s.pagos.list(clubID) {
		if p.DeudaID == deudaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListMiembros(_ context.Context, clubID string) ([]core.Miembro, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.miembros.list(clubID), nil
}

func (s *Store) GetMiembro(_ context.Context, clubID, id string) (core.Miembro, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.miembros.get(clubID, id)
}

func (s *Store) CreateMiembro(_ context.Context, m core.Miembro) error {
	return s.write(func() error { s.miembros.create(m); return nil })
}

func (s *Store) UpdateMiembro(_ context.Context, m core.Miembro) error {
	return s.write(func() error { return s.miembros.update(m) })
}

func (s *Store) DeleteMiembro(_ context.Context, clubID, id string) error {
	return s.write(func() error { return s.miembros.delete(clubID, id) })
}

func (s *Store) ListUsuarios(_ context.Context, clubID string) ([]core.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usuarios.list(clubID), nil
}

func (s *Store) GetUsuario(_ context.Context, clubID, id string) (core.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usuarios.get(clubID, id)
}

func (s *Store) CreateUsuario(_ context.Context, u core.Usuario) error {
	return s.write(func() error { s.usuarios.create(u); return nil })
}

func (s *Store) UpdateUsuario(_ context.Context, u core.Usuario) error {
	return s.write(func() error { return s.usuarios.update(u) })
}

func (s *Store) DeleteUsuario(_ context.Context, clubID, id string) error {
	return s.write(func() error { return s.usuarios.delete(clubID, id) })
}

func (s *Store) AppendAudit(_ context.Context, e core.AuditEntry) error {
	return s.write(func() error { s.audit.create(e); return nil })
}

func (s *Store) ListAudit(_ context.Context, clubID string, limit int) ([]core.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.audit.list(clubID)
	// newest first; entries with equal timestamps keep reverse insertion order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
