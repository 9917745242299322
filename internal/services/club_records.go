package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"colectas/internal/aggregate"
	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/session"
)

func colectaID(c core.Colecta) string { return c.ID }
func aporteID(a core.Aporte) string   { return a.ID }
func gastoID(g core.Gasto) string     { return g.ID }
func ingresoID(i core.Ingreso) string { return i.ID }
func deudaID(d core.Deuda) string     { return d.ID }
func miembroID(m core.Miembro) string { return m.ID }

// snapshotNombre resolves the name snapshot of a member reference on a
// write. A reference equal to kept, the one already on record, keeps
// fallback without a lookup, so records of deleted members stay editable.
func (s *ClubService) snapshotNombre(ctx context.Context, clubID, id, kept, fallback string) (string, error) {
	if id != "" && id == kept {
		return fallback, nil
	}
	return s.miembroNombre(ctx, clubID, id, fallback)
}

// miembroNombre resolves the name snapshot for a member reference. An
// unknown non-empty ID is a validation error; an empty ID keeps fallback.
func (s *ClubService) miembroNombre(ctx context.Context, clubID, id, fallback string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return fallback, nil
	}
	m, err := s.store.GetMiembro(ctx, clubID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.ValidationError{Msg: "miembro " + id + " does not exist"}
		}
		return "", err
	}
	return m.Nombre, nil
}

func (s *ClubService) checkColecta(ctx context.Context, clubID, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if _, err := s.store.GetColecta(ctx, clubID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ValidationError{Msg: "colecta " + id + " does not exist"}
		}
		return err
	}
	return nil
}

// Colectas

func (s *ClubService) ListColectas(ctx context.Context, sess session.Session, c filter.Criteria) ([]aggregate.ColectaResumen, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	var out []aggregate.ColectaResumen
	for _, col := range filter.Apply(l.Colectas, c, s.now(), filter.ColectaFields) {
		out = append(out, aggregate.Colecta(col, l.Aportes, l.Gastos))
	}
	return out, nil
}

func (s *ClubService) ColectaResumen(ctx context.Context, sess session.Session, id string) (aggregate.ColectaResumen, error) {
	return s.colectaResumen(ctx, sess.ClubID, id)
}

// PublicColecta serves the read-only campaign progress page, which needs
// no session. Unknown clubs are rejected before any ledger is loaded or
// cached.
func (s *ClubService) PublicColecta(ctx context.Context, clubID, id string) (aggregate.ColectaResumen, error) {
	if _, err := s.store.GetClub(ctx, clubID); err != nil {
		return aggregate.ColectaResumen{}, err
	}
	return s.colectaResumen(ctx, clubID, id)
}

func (s *ClubService) colectaResumen(ctx context.Context, clubID, id string) (aggregate.ColectaResumen, error) {
	l, err := s.Ledger(ctx, clubID)
	if err != nil {
		return aggregate.ColectaResumen{}, err
	}
	for _, c := range l.Colectas {
		if c.ID == id {
			return aggregate.Colecta(c, l.Aportes, l.Gastos), nil
		}
	}
	return aggregate.ColectaResumen{}, core.ErrNotFound
}

func (s *ClubService) CreateColecta(ctx context.Context, sess session.Session, in core.Colecta) (core.Colecta, error) {
	in.ID, in.ClubID, in.CreatedAt = s.newID(), sess.ClubID, s.now().UTC()
	if in.Estado == "" {
		in.Estado = core.ColectaActiva
	}
	if err := in.Validate(); err != nil {
		return core.Colecta{}, err
	}
	err := s.write(ctx, sess.ClubID, EntidadColecta, AccionCreate,
		func(l *core.Ledger) { l.Colectas = append(l.Colectas, in) },
		func(ctx context.Context) error { return s.store.CreateColecta(ctx, in) })
	if err != nil {
		return core.Colecta{}, err
	}
	s.audit(ctx, sess, AccionCreate, EntidadColecta, in.ID, nil)
	return in, nil
}

func (s *ClubService) UpdateColecta(ctx context.Context, sess session.Session, id string, in core.Colecta) (core.Colecta, error) {
	old, err := s.store.GetColecta(ctx, sess.ClubID, id)
	if err != nil {
		return core.Colecta{}, err
	}
	in.ID, in.ClubID, in.CreatedAt = id, sess.ClubID, old.CreatedAt
	if err := in.Validate(); err != nil {
		return core.Colecta{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadColecta, AccionUpdate,
		func(l *core.Ledger) { l.Colectas = replaceByID(l.Colectas, colectaID, in) },
		func(ctx context.Context) error { return s.store.UpdateColecta(ctx, in) })
	if err != nil {
		return core.Colecta{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadColecta, id, diffColecta(old, in))
	return in, nil
}

// DeleteColecta removes the campaign and every contribution and expense
// linked to it.
func (s *ClubService) DeleteColecta(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadColecta, AccionDelete,
		func(l *core.Ledger) {
			l.Colectas = removeWhere(l.Colectas, func(c core.Colecta) bool { return c.ID == id })
			l.Aportes = removeWhere(l.Aportes, func(a core.Aporte) bool { return a.ColectaID == id })
			l.Gastos = removeWhere(l.Gastos, func(g core.Gasto) bool { return g.ColectaID == id })
		},
		func(ctx context.Context) error { return s.store.DeleteColecta(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadColecta, id, nil)
	return nil
}

// Aportes

func (s *ClubService) ListAportes(ctx context.Context, sess session.Session, c filter.Criteria) ([]core.Aporte, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(l.Aportes, c, s.now(), filter.AporteFields), nil
}

func (s *ClubService) GetAporte(ctx context.Context, sess session.Session, id string) (core.Aporte, error) {
	return s.store.GetAporte(ctx, sess.ClubID, id)
}

func (s *ClubService) prepareAporte(ctx context.Context, sess session.Session, in *core.Aporte, keptMiembro string) error {
	in.ClubID = sess.ClubID
	if in.Fecha.IsZero() {
		in.Fecha = s.today()
	}
	if in.Estado == "" {
		in.Estado = core.AporteAportado
	}
	if in.MetodoPago == "" {
		in.MetodoPago = core.PagoEfectivo
	}
	nombre, err := s.snapshotNombre(ctx, sess.ClubID, in.MiembroID, keptMiembro, in.MiembroNombre)
	if err != nil {
		return err
	}
	in.MiembroNombre = nombre
	if err := in.Validate(); err != nil {
		return err
	}
	return s.checkColecta(ctx, sess.ClubID, in.ColectaID)
}

func (s *ClubService) CreateAporte(ctx context.Context, sess session.Session, in core.Aporte) (core.Aporte, error) {
	in.ID = s.newID()
	if err := s.prepareAporte(ctx, sess, &in, ""); err != nil {
		return core.Aporte{}, err
	}
	err := s.write(ctx, sess.ClubID, EntidadAporte, AccionCreate,
		func(l *core.Ledger) { l.Aportes = append(l.Aportes, in) },
		func(ctx context.Context) error { return s.store.CreateAporte(ctx, in) })
	if err != nil {
		return core.Aporte{}, err
	}
	s.recordAmount(EntidadAporte, in.Cantidad)
	s.audit(ctx, sess, AccionCreate, EntidadAporte, in.ID, nil)
	return in, nil
}

func (s *ClubService) UpdateAporte(ctx context.Context, sess session.Session, id string, in core.Aporte) (core.Aporte, error) {
	old, err := s.store.GetAporte(ctx, sess.ClubID, id)
	if err != nil {
		return core.Aporte{}, err
	}
	in.ID = id
	if in.MiembroID == old.MiembroID && in.MiembroNombre == "" {
		in.MiembroNombre = old.MiembroNombre
	}
	if err := s.prepareAporte(ctx, sess, &in, old.MiembroID); err != nil {
		return core.Aporte{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadAporte, AccionUpdate,
		func(l *core.Ledger) { l.Aportes = replaceByID(l.Aportes, aporteID, in) },
		func(ctx context.Context) error { return s.store.UpdateAporte(ctx, in) })
	if err != nil {
		return core.Aporte{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadAporte, id, diffAporte(old, in))
	return in, nil
}

func (s *ClubService) DeleteAporte(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadAporte, AccionDelete,
		func(l *core.Ledger) { l.Aportes = removeWhere(l.Aportes, func(a core.Aporte) bool { return a.ID == id }) },
		func(ctx context.Context) error { return s.store.DeleteAporte(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadAporte, id, nil)
	return nil
}

// Gastos

func (s *ClubService) ListGastos(ctx context.Context, sess session.Session, c filter.Criteria) ([]core.Gasto, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(l.Gastos, c, s.now(), filter.GastoFields), nil
}

func (s *ClubService) GetGasto(ctx context.Context, sess session.Session, id string) (core.Gasto, error) {
	return s.store.GetGasto(ctx, sess.ClubID, id)
}

func (s *ClubService) prepareGasto(ctx context.Context, sess session.Session, in *core.Gasto, keptMiembro string) error {
	in.ClubID = sess.ClubID
	in.Categoria = strings.ToLower(strings.TrimSpace(in.Categoria))
	if in.Fecha.IsZero() {
		in.Fecha = s.today()
	}
	if in.TipoGasto == "" {
		in.TipoGasto = core.GastoGeneral
		if in.ColectaID != "" {
			in.TipoGasto = core.GastoColecta
		}
	}
	nombre, err := s.snapshotNombre(ctx, sess.ClubID, in.QuienPagoID, keptMiembro, in.QuienPagoNombre)
	if err != nil {
		return err
	}
	in.QuienPagoNombre = nombre
	if err := in.Validate(); err != nil {
		return err
	}
	return s.checkColecta(ctx, sess.ClubID, in.ColectaID)
}

func (s *ClubService) CreateGasto(ctx context.Context, sess session.Session, in core.Gasto) (core.Gasto, error) {
	in.ID = s.newID()
	if err := s.prepareGasto(ctx, sess, &in, ""); err != nil {
		return core.Gasto{}, err
	}
	err := s.write(ctx, sess.ClubID, EntidadGasto, AccionCreate,
		func(l *core.Ledger) { l.Gastos = append(l.Gastos, in) },
		func(ctx context.Context) error { return s.store.CreateGasto(ctx, in) })
	if err != nil {
		return core.Gasto{}, err
	}
	s.recordAmount(EntidadGasto, in.Cantidad)
	s.audit(ctx, sess, AccionCreate, EntidadGasto, in.ID, nil)
	return in, nil
}

func (s *ClubService) UpdateGasto(ctx context.Context, sess session.Session, id string, in core.Gasto) (core.Gasto, error) {
	old, err := s.store.GetGasto(ctx, sess.ClubID, id)
	if err != nil {
		return core.Gasto{}, err
	}
	in.ID = id
	if in.QuienPagoID == old.QuienPagoID && in.QuienPagoNombre == "" {
		in.QuienPagoNombre = old.QuienPagoNombre
	}
	if err := s.prepareGasto(ctx, sess, &in, old.QuienPagoID); err != nil {
		return core.Gasto{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadGasto, AccionUpdate,
		func(l *core.Ledger) { l.Gastos = replaceByID(l.Gastos, gastoID, in) },
		func(ctx context.Context) error { return s.store.UpdateGasto(ctx, in) })
	if err != nil {
		return core.Gasto{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadGasto, id, diffGasto(old, in))
	return in, nil
}

func (s *ClubService) DeleteGasto(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadGasto, AccionDelete,
		func(l *core.Ledger) { l.Gastos = removeWhere(l.Gastos, func(g core.Gasto) bool { return g.ID == id }) },
		func(ctx context.Context) error { return s.store.DeleteGasto(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadGasto, id, nil)
	return nil
}

// Ingresos

func (s *ClubService) ListIngresos(ctx context.Context, sess session.Session, c filter.Criteria) ([]core.Ingreso, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(l.Ingresos, c, s.now(), filter.IngresoFields), nil
}

func (s *ClubService) GetIngreso(ctx context.Context, sess session.Session, id string) (core.Ingreso, error) {
	return s.store.GetIngreso(ctx, sess.ClubID, id)
}

func (s *ClubService) prepareIngreso(ctx context.Context, sess session.Session, in *core.Ingreso, keptMiembro string) error {
	in.ClubID = sess.ClubID
	in.Fuente = core.NormalizeFuente(in.Fuente)
	if in.Fecha.IsZero() {
		in.Fecha = s.today()
	}
	nombre, err := s.snapshotNombre(ctx, sess.ClubID, in.MiembroID, keptMiembro, in.MiembroNombre)
	if err != nil {
		return err
	}
	in.MiembroNombre = nombre
	return in.Validate()
}

func (s *ClubService) CreateIngreso(ctx context.Context, sess session.Session, in core.Ingreso) (core.Ingreso, error) {
	in.ID = s.newID()
	if err := s.prepareIngreso(ctx, sess, &in, ""); err != nil {
		return core.Ingreso{}, err
	}
	err := s.write(ctx, sess.ClubID, EntidadIngreso, AccionCreate,
		func(l *core.Ledger) { l.Ingresos = append(l.Ingresos, in) },
		func(ctx context.Context) error { return s.store.CreateIngreso(ctx, in) })
	if err != nil {
		return core.Ingreso{}, err
	}
	s.recordAmount(EntidadIngreso, in.Cantidad)
	s.audit(ctx, sess, AccionCreate, EntidadIngreso, in.ID, nil)
	return in, nil
}

func (s *ClubService) UpdateIngreso(ctx context.Context, sess session.Session, id string, in core.Ingreso) (core.Ingreso, error) {
	old, err := s.store.GetIngreso(ctx, sess.ClubID, id)
	if err != nil {
		return core.Ingreso{}, err
	}
	in.ID = id
	if in.MiembroID == old.MiembroID && in.MiembroNombre == "" {
		in.MiembroNombre = old.MiembroNombre
	}
	if err := s.prepareIngreso(ctx, sess, &in, old.MiembroID); err != nil {
		return core.Ingreso{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadIngreso, AccionUpdate,
		func(l *core.Ledger) { l.Ingresos = replaceByID(l.Ingresos, ingresoID, in) },
		func(ctx context.Context) error { return s.store.UpdateIngreso(ctx, in) })
	if err != nil {
		return core.Ingreso{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadIngreso, id, diffIngreso(old, in))
	return in, nil
}

func (s *ClubService) DeleteIngreso(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadIngreso, AccionDelete,
		func(l *core.Ledger) { l.Ingresos = removeWhere(l.Ingresos, func(i core.Ingreso) bool { return i.ID == id }) },
		func(ctx context.Context) error { return s.store.DeleteIngreso(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadIngreso, id, nil)
	return nil
}

// Miembros

func (s *ClubService) ListMiembros(ctx context.Context, sess session.Session, c filter.Criteria) ([]core.Miembro, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(l.Miembros, c, s.now(), filter.MiembroFields), nil
}

func (s *ClubService) GetMiembro(ctx context.Context, sess session.Session, id string) (core.Miembro, error) {
	return s.store.GetMiembro(ctx, sess.ClubID, id)
}

func (s *ClubService) CreateMiembro(ctx context.Context, sess session.Session, in core.Miembro) (core.Miembro, error) {
	in.ID, in.ClubID = s.newID(), sess.ClubID
	if in.Estado == "" {
		in.Estado = core.MiembroActivo
	}
	if err := in.Validate(); err != nil {
		return core.Miembro{}, err
	}
	err := s.write(ctx, sess.ClubID, EntidadMiembro, AccionCreate,
		func(l *core.Ledger) { l.Miembros = append(l.Miembros, in) },
		func(ctx context.Context) error { return s.store.CreateMiembro(ctx, in) })
	if err != nil {
		return core.Miembro{}, err
	}
	s.audit(ctx, sess, AccionCreate, EntidadMiembro, in.ID, nil)
	return in, nil
}

// UpdateMiembro leaves the name snapshots of existing records untouched.
func (s *ClubService) UpdateMiembro(ctx context.Context, sess session.Session, id string, in core.Miembro) (core.Miembro, error) {
	old, err := s.store.GetMiembro(ctx, sess.ClubID, id)
	if err != nil {
		return core.Miembro{}, err
	}
	in.ID, in.ClubID = id, sess.ClubID
	if err := in.Validate(); err != nil {
		return core.Miembro{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadMiembro, AccionUpdate,
		func(l *core.Ledger) { l.Miembros = replaceByID(l.Miembros, miembroID, in) },
		func(ctx context.Context) error { return s.store.UpdateMiembro(ctx, in) })
	if err != nil {
		return core.Miembro{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadMiembro, id, diffMiembro(old, in))
	return in, nil
}

// DeleteMiembro removes the member only; records referencing it keep
// their name snapshot.
func (s *ClubService) DeleteMiembro(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadMiembro, AccionDelete,
		func(l *core.Ledger) { l.Miembros = removeWhere(l.Miembros, func(m core.Miembro) bool { return m.ID == id }) },
		func(ctx context.Context) error { return s.store.DeleteMiembro(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadMiembro, id, nil)
	return nil
}

// Usuarios are managed by admins only.

func (s *ClubService) ListUsuarios(ctx context.Context, sess session.Session) ([]core.Usuario, error) {
	if !sess.IsAdmin() {
		return nil, session.ErrForbidden
	}
	return s.store.ListUsuarios(ctx, sess.ClubID)
}

func (s *ClubService) GetUsuario(ctx context.Context, sess session.Session, id string) (core.Usuario, error) {
	if !sess.IsAdmin() {
		return core.Usuario{}, session.ErrForbidden
	}
	return s.store.GetUsuario(ctx, sess.ClubID, id)
}

func (s *ClubService) CreateUsuario(ctx context.Context, sess session.Session, in core.Usuario) (core.Usuario, error) {
	if !sess.IsAdmin() {
		return core.Usuario{}, session.ErrForbidden
	}
	in.ID, in.ClubID = s.newID(), sess.ClubID
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return core.Usuario{}, err
	}
	if err := s.store.CreateUsuario(ctx, in); err != nil {
		return core.Usuario{}, err
	}
	s.countWrite(EntidadUsuario, AccionCreate)
	s.audit(ctx, sess, AccionCreate, EntidadUsuario, in.ID, core.UserAffected{UsuarioID: in.ID, Email: in.Email, Rol: in.Rol})
	return in, nil
}

func (s *ClubService) UpdateUsuario(ctx context.Context, sess session.Session, id string, in core.Usuario) (core.Usuario, error) {
	if !sess.IsAdmin() {
		return core.Usuario{}, session.ErrForbidden
	}
	if _, err := s.store.GetUsuario(ctx, sess.ClubID, id); err != nil {
		return core.Usuario{}, err
	}
	in.ID, in.ClubID = id, sess.ClubID
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return core.Usuario{}, err
	}
	if id == sess.UserID && in.Rol != core.RolAdmin {
		return core.Usuario{}, core.ValidationError{Msg: "cannot remove your own admin role"}
	}
	if err := s.store.UpdateUsuario(ctx, in); err != nil {
		return core.Usuario{}, err
	}
	s.countWrite(EntidadUsuario, AccionUpdate)
	s.audit(ctx, sess, AccionUpdate, EntidadUsuario, id, core.UserAffected{UsuarioID: id, Email: in.Email, Rol: in.Rol})
	return in, nil
}

func (s *ClubService) DeleteUsuario(ctx context.Context, sess session.Session, id string) error {
	if !sess.IsAdmin() {
		return session.ErrForbidden
	}
	if id == sess.UserID {
		return core.ValidationError{Msg: "cannot delete your own account"}
	}
	u, err := s.store.GetUsuario(ctx, sess.ClubID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUsuario(ctx, sess.ClubID, id); err != nil {
		return err
	}
	s.countWrite(EntidadUsuario, AccionDelete)
	s.audit(ctx, sess, AccionDelete, EntidadUsuario, id, core.UserDeleted{UsuarioID: u.ID, Email: u.Email, Nombre: u.Nombre})
	return nil
}

func (s *ClubService) countWrite(entity, accion string) {
	if s.metrics != nil {
		s.metrics.RecordsWritten.WithLabelValues(entity, accion).Inc()
	}
}

// Dashboard summarizes the whole club.
func (s *ClubService) Dashboard(ctx context.Context, sess session.Session) (aggregate.Resumen, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return aggregate.Resumen{}, err
	}
	return aggregate.Dashboard(l), nil
}

// Field diffs for update audit entries.

func units(m core.Money) string { return strconv.FormatInt(m.Units, 10) }

func diffColecta(a, b core.Colecta) core.FieldChanges {
	f := func(c core.Colecta) map[string]string {
		cierre := ""
		if c.FechaCierre != nil {
			cierre = c.FechaCierre.ISO()
		}
		return map[string]string{"nombre": c.Nombre, "descripcion": c.Descripcion, "objetivo": units(c.Objetivo),
			"estado": string(c.Estado), "fecha_cierre": cierre}
	}
	return core.DiffFields([]string{"nombre", "descripcion", "objetivo", "estado", "fecha_cierre"}, f(a), f(b))
}

func diffAporte(a, b core.Aporte) core.FieldChanges {
	f := func(x core.Aporte) map[string]string {
		return map[string]string{"colecta_id": x.ColectaID, "miembro": x.MiembroNombre, "cantidad": units(x.Cantidad),
			"estado": string(x.Estado), "metodo_pago": string(x.MetodoPago), "fecha": x.Fecha.ISO(), "notas": x.Notas}
	}
	return core.DiffFields([]string{"colecta_id", "miembro", "cantidad", "estado", "metodo_pago", "fecha", "notas"}, f(a), f(b))
}

func diffGasto(a, b core.Gasto) core.FieldChanges {
	f := func(x core.Gasto) map[string]string {
		return map[string]string{"concepto": x.Concepto, "categoria": x.Categoria, "cantidad": units(x.Cantidad),
			"quien_pago": x.QuienPagoNombre, "colecta_id": x.ColectaID, "tipo_gasto": string(x.TipoGasto),
			"fecha": x.Fecha.ISO(), "notas": x.Notas}
	}
	return core.DiffFields([]string{"concepto", "categoria", "cantidad", "quien_pago", "colecta_id", "tipo_gasto", "fecha", "notas"}, f(a), f(b))
}

func diffIngreso(a, b core.Ingreso) core.FieldChanges {
	f := func(x core.Ingreso) map[string]string {
		return map[string]string{"concepto": x.Concepto, "cantidad": units(x.Cantidad), "fuente": x.Fuente,
			"miembro": x.MiembroNombre, "fecha": x.Fecha.ISO()}
	}
	return core.DiffFields([]string{"concepto", "cantidad", "fuente", "miembro", "fecha"}, f(a), f(b))
}

func diffMiembro(a, b core.Miembro) core.FieldChanges {
	f := func(x core.Miembro) map[string]string {
		return map[string]string{"nombre": x.Nombre, "email": x.Email, "telefono": x.Telefono,
			"estado": string(x.Estado), "deuda_cuota": units(x.DeudaCuota)}
	}
	return core.DiffFields([]string{"nombre", "email", "telefono", "estado", "deuda_cuota"}, f(a), f(b))
}

func diffDeuda(a, b core.Deuda) core.FieldChanges {
	f := func(x core.Deuda) map[string]string {
		return map[string]string{"concepto": x.Concepto, "miembro": x.MiembroNombre, "monto_original": units(x.MontoOriginal),
			"monto_pagado": units(x.MontoPagado), "estado": string(x.Estado), "fecha": x.Fecha.ISO()}
	}
	return core.DiffFields([]string{"concepto", "miembro", "monto_original", "monto_pagado", "estado", "fecha"}, f(a), f(b))
}
