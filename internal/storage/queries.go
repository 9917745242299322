package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"colectas/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements of every table. Rows are returned in
// insertion order.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func dateValue(d core.Date) string { return d.ISO() }

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// execOne runs a write that must touch exactly one row.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// clubs

func (q *Queries) GetClub(ctx context.Context, id string) (core.Club, error) {
	var c core.Club
	var created string
	err := q.db.QueryRowContext(ctx, `SELECT id, nombre, created_at FROM clubs WHERE id = ?`, id).
		Scan(&c.ID, &c.Nombre, &created)
	if err != nil {
		return core.Club{}, notFound(err)
	}
	c.CreatedAt, err = parseTime(created)
	return c, err
}

func (q *Queries) UpsertClub(ctx context.Context, c core.Club) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO clubs (id, nombre, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET nombre = excluded.nombre`,
		c.ID, c.Nombre, c.CreatedAt.UTC().Format(timeLayout))
	return err
}

// colectas

const colectaColumns = `id, club_id, nombre, descripcion, objetivo, estado, fecha_cierre, created_at`

func scanColecta(s scanner) (core.Colecta, error) {
	var c core.Colecta
	var cierre sql.NullString
	var created string
	if err := s.Scan(&c.ID, &c.ClubID, &c.Nombre, &c.Descripcion, &c.Objetivo.Units, &c.Estado, &cierre, &created); err != nil {
		return core.Colecta{}, err
	}
	if cierre.Valid && cierre.String != "" {
		d, err := parseDate(cierre.String)
		if err != nil {
			return core.Colecta{}, fmt.Errorf("colecta %s fecha_cierre: %w", c.ID, err)
		}
		c.FechaCierre = &d
	}
	var err error
	c.CreatedAt, err = parseTime(created)
	return c, err
}

func colectaArgs(c core.Colecta) []any {
	var cierre sql.NullString
	if c.FechaCierre != nil && !c.FechaCierre.IsZero() {
		cierre = sql.NullString{String: c.FechaCierre.ISO(), Valid: true}
	}
	return []any{c.Nombre, c.Descripcion, c.Objetivo.Units, string(c.Estado), cierre}
}

func (q *Queries) ListColectas(ctx context.Context, clubID string) ([]core.Colecta, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+colectaColumns+` FROM colectas WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanColecta)
}

func (q *Queries) GetColecta(ctx context.Context, clubID, id string) (core.Colecta, error) {
	c, err := scanColecta(q.db.QueryRowContext(ctx, `SELECT `+colectaColumns+` FROM colectas WHERE club_id = ? AND id = ?`, clubID, id))
	return c, notFound(err)
}

func (q *Queries) CreateColecta(ctx context.Context, c core.Colecta) error {
	args := append([]any{c.ID, c.ClubID}, colectaArgs(c)...)
	args = append(args, c.CreatedAt.UTC().Format(timeLayout))
	_, err := q.db.ExecContext(ctx, `INSERT INTO colectas (`+colectaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

func (q *Queries) UpdateColecta(ctx context.Context, c core.Colecta) error {
	args := append(colectaArgs(c), c.ClubID, c.ID)
	return q.execOne(ctx,
		`UPDATE colectas SET nombre = ?, descripcion = ?, objetivo = ?, estado = ?, fecha_cierre = ?
		 WHERE club_id = ? AND id = ?`, args...)
}

func (q *Queries) DeleteColecta(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM colectas WHERE club_id = ? AND id = ?`, clubID, id)
}

func (q *Queries) DeleteAportesOfColecta(ctx context.Context, clubID, colectaID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM aportes WHERE club_id = ? AND colecta_id = ?`, clubID, colectaID)
	return err
}

func (q *Queries) DeleteGastosOfColecta(ctx context.Context, clubID, colectaID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM gastos WHERE club_id = ? AND colecta_id = ?`, clubID, colectaID)
	return err
}

// aportes

const aporteColumns = `id, club_id, colecta_id, miembro_id, miembro_nombre, cantidad, estado, metodo_pago, fecha, notas`

func scanAporte(s scanner) (core.Aporte, error) {
	var a core.Aporte
	var fecha string
	if err := s.Scan(&a.ID, &a.ClubID, &a.ColectaID, &a.MiembroID, &a.MiembroNombre, &a.Cantidad.Units,
		&a.Estado, &a.MetodoPago, &fecha, &a.Notas); err != nil {
		return core.Aporte{}, err
	}
	var err error
	a.Fecha, err = parseDate(fecha)
	return a, err
}

func aporteArgs(a core.Aporte) []any {
	return []any{a.ColectaID, a.MiembroID, a.MiembroNombre, a.Cantidad.Units, string(a.Estado), string(a.MetodoPago), dateValue(a.Fecha), a.Notas}
}

func (q *Queries) ListAportes(ctx context.Context, clubID string) ([]core.Aporte, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+aporteColumns+` FROM aportes WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAporte)
}

func (q *Queries) GetAporte(ctx context.Context, clubID, id string) (core.Aporte, error) {
	a, err := scanAporte(q.db.QueryRowContext(ctx, `SELECT `+aporteColumns+` FROM aportes WHERE club_id = ? AND id = ?`, clubID, id))
	return a, notFound(err)
}

func (q *Queries) CreateAporte(ctx context.Context, a core.Aporte) error {
	args := append([]any{a.ID, a.ClubID}, aporteArgs(a)...)
	_, err := q.db.ExecContext(ctx, `INSERT INTO aportes (`+aporteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

func (q *Queries) UpdateAporte(ctx context.Context, a core.Aporte) error {
	args := append(aporteArgs(a), a.ClubID, a.ID)
	return q.execOne(ctx,
		`UPDATE aportes SET colecta_id = ?, miembro_id = ?, miembro_nombre = ?, cantidad = ?, estado = ?,
		 metodo_pago = ?, fecha = ?, notas = ? WHERE club_id = ? AND id = ?`, args...)
}

func (q *Queries) DeleteAporte(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM aportes WHERE club_id = ? AND id = ?`, clubID, id)
}

// gastos

const gastoColumns = `id, club_id, concepto, categoria, cantidad, quien_pago_id, quien_pago_nombre, colecta_id, tipo_gasto, fecha, notas`

func scanGasto(s scanner) (core.Gasto, error) {
	var g core.Gasto
	var fecha string
	if err := s.Scan(&g.ID, &g.ClubID, &g.Concepto, &g.Categoria, &g.Cantidad.Units, &g.QuienPagoID,
		&g.QuienPagoNombre, &g.ColectaID, &g.TipoGasto, &fecha, &g.Notas); err != nil {
		return core.Gasto{}, err
	}
	var err error
	g.Fecha, err = parseDate(fecha)
	return g, err
}

func gastoArgs(g core.Gasto) []any {
	return []any{g.Concepto, g.Categoria, g.Cantidad.Units, g.QuienPagoID, g.QuienPagoNombre, g.ColectaID,
		string(g.TipoGasto), dateValue(g.Fecha), g.Notas}
}

func (q *Queries) ListGastos(ctx context.Context, clubID string) ([]core.Gasto, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+gastoColumns+` FROM gastos WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanGasto)
}

func (q *Queries) GetGasto(ctx context.Context, clubID, id string) (core.Gasto, error) {
	g, err := scanGasto(q.db.QueryRowContext(ctx, `SELECT `+gastoColumns+` FROM gastos WHERE club_id = ? AND id = ?`, clubID, id))
	return g, notFound(err)
}

func (q *Queries) CreateGasto(ctx context.Context, g core.Gasto) error {
	args := append([]any{g.ID, g.ClubID}, gastoArgs(g)...)
	_, err := q.db.ExecContext(ctx, `INSERT INTO gastos (`+gastoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

func (q *Queries) UpdateGasto(ctx context.Context, g core.Gasto) error {
	args := append(gastoArgs(g), g.ClubID, g.ID)
	return q.execOne(ctx,
		`UPDATE gastos SET concepto = ?, categoria = ?, cantidad = ?, quien_pago_id = ?, quien_pago_nombre = ?,
		 colecta_id = ?, tipo_gasto = ?, fecha = ?, notas = ? WHERE club_id = ? AND id = ?`, args...)
}

func (q *Queries) DeleteGasto(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM gastos WHERE club_id = ? AND id = ?`, clubID, id)
}

// ingresos

const ingresoColumns = `id, club_id, concepto, cantidad, fuente, miembro_id, miembro_nombre, fecha`

func scanIngreso(s scanner) (core.Ingreso, error) {
	var i core.Ingreso
	var fecha string
	if err := s.Scan(&i.ID, &i.ClubID, &i.Concepto, &i.Cantidad.Units, &i.Fuente, &i.MiembroID, &i.MiembroNombre, &fecha); err != nil {
		return core.Ingreso{}, err
	}
	var err error
	i.Fecha, err = parseDate(fecha)
	return i, err
}

func ingresoArgs(i core.Ingreso) []any {
	return []any{i.Concepto, i.Cantidad.Units, i.Fuente, i.MiembroID, i.MiembroNombre, dateValue(i.Fecha)}
}

func (q *Queries) ListIngresos(ctx context.Context, clubID string) ([]core.Ingreso, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+ingresoColumns+` FROM ingresos WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIngreso)
}

func (q *Queries) GetIngreso(ctx context.Context, clubID, id string) (core.Ingreso, error) {
	i, err := scanIngreso(q.db.QueryRowContext(ctx, `SELECT `+ingresoColumns+` FROM ingresos WHERE club_id = ? AND id = ?`, clubID, id))
	return i, notFound(err)
}

func (q *Queries) CreateIngreso(ctx context.Context, i core.Ingreso) error {
	args := append([]any{i.ID, i.ClubID}, ingresoArgs(i)...)
	_, err := q.db.ExecContext(ctx, `INSERT INTO ingresos (`+ingresoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

func (q *Queries) UpdateIngreso(ctx context.Context, i core.Ingreso) error {
	args := append(ingresoArgs(i), i.ClubID, i.ID)
	return q.execOne(ctx,
		`UPDATE ingresos SET concepto = ?, cantidad = ?, fuente = ?, miembro_id = ?, miembro_nombre = ?, fecha = ?
		 WHERE club_id = ? AND id = ?`, args...)
}

func (q *Queries) DeleteIngreso(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM ingresos WHERE club_id = ? AND id = ?`, clubID, id)
}

// deudas

const deudaColumns = `id, club_id, miembro_id, miembro_nombre, concepto, monto_original, monto_pagado, monto_restante, estado, fecha`

func scanDeuda(s scanner) (core.Deuda, error) {
	var d core.Deuda
	var fecha string
	if err := s.Scan(&d.ID, &d.ClubID, &d.MiembroID, &d.MiembroNombre, &d.Concepto, &d.MontoOriginal.Units,
		&d.MontoPagado.Units, &d.MontoRestante.Units, &d.Estado, &fecha); err != nil {
		return core.Deuda{}, err
	}
	var err error
	d.Fecha, err = parseDate(fecha)
	return d, err
}

func deudaArgs(d core.Deuda) []any {
	return []any{d.MiembroID, d.MiembroNombre, d.Concepto, d.MontoOriginal.Units, d.MontoPagado.Units,
		d.MontoRestante.Units, string(d.Estado), dateValue(d.Fecha)}
}

func (q *Queries) ListDeudas(ctx context.Context, clubID string) ([]core.Deuda, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+deudaColumns+` FROM deudas WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDeuda)
}

func (q *Queries) GetDeuda(ctx context.Context, clubID, id string) (core.Deuda, error) {
	d, err := scanDeuda(q.db.QueryRowContext(ctx, `SELECT `+deudaColumns+` FROM deudas WHERE club_id = ? AND id = ?`, clubID, id))
	return d, notFound(err)
}

func (q *Queries) CreateDeuda(ctx context.Context, d core.Deuda) error {
	args := append([]any{d.ID, d.ClubID}, deudaArgs(d)...)
	_, err := q.db.ExecContext(ctx, `INSERT INTO deudas (`+deudaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return err
}

func (q *Queries) UpdateDeuda(ctx context.Context, d core.Deuda) error {
	args := append(deudaArgs(d), d.ClubID, d.ID)
	return q.execOne(ctx,
		`UPDATE deudas SET miembro_id = ?, miembro_nombre = ?, concepto = ?, monto_original = ?, monto_pagado = ?,
		 monto_restante = ?, estado = ?, fecha = ? WHERE club_id = ? AND id = ?`, args...)
}

func (q *Queries) DeleteDeuda(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM deudas WHERE club_id = ? AND id = ?`, clubID, id)
}

func (q *Queries) DeletePagosOfDeuda(ctx context.Context, clubID, deudaID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pagos_deuda WHERE club_id = ? AND deuda_id = ?`, clubID, deudaID)
	return err
}

func (q *Queries) CreatePago(ctx context.Context, p core.PagoDeuda) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO pagos_deuda (id, club_id, deuda_id, monto, fecha, notas) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClubID, p.DeudaID, p.Monto.Units, p.Fecha.UTC().Format(timeLayout), p.Notas)
	return err
}

func (q *Queries) ListPagos(ctx context.Context, clubID, deudaID string) ([]core.PagoDeuda, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, club_id, deuda_id, monto, fecha, notas FROM pagos_deuda
		 WHERE club_id = ? AND deuda_id = ? ORDER BY rowid`, clubID, deudaID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(s scanner) (core.PagoDeuda, error) {
		var p core.PagoDeuda
		var fecha string
		if err := s.Scan(&p.ID, &p.ClubID, &p.DeudaID, &p.Monto.Units, &fecha, &p.Notas); err != nil {
			return core.PagoDeuda{}, err
		}
		var err error
		p.Fecha, err = parseTime(fecha)
		return p, err
	})
}

// miembros

const miembroColumns = `id, club_id, nombre, email, telefono, estado, deuda_cuota`

func scanMiembro(s scanner) (core.Miembro, error) {
	var m core.Miembro
	err := s.Scan(&m.ID, &m.ClubID, &m.Nombre, &m.Email, &m.Telefono, &m.Estado, &m.DeudaCuota.Units)
	return m, err
}

func (q *Queries) ListMiembros(ctx context.Context, clubID string) ([]core.Miembro, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+miembroColumns+` FROM miembros WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMiembro)
}

func (q *Queries) GetMiembro(ctx context.Context, clubID, id string) (core.Miembro, error) {
	m, err := scanMiembro(q.db.QueryRowContext(ctx, `SELECT `+miembroColumns+` FROM miembros WHERE club_id = ? AND id = ?`, clubID, id))
	return m, notFound(err)
}

func (q *Queries) CreateMiembro(ctx context.Context, m core.Miembro) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO miembros (`+miembroColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ClubID, m.Nombre, m.Email, m.Telefono, string(m.Estado), m.DeudaCuota.Units)
	return err
}

func (q *Queries) UpdateMiembro(ctx context.Context, m core.Miembro) error {
	return q.execOne(ctx,
		`UPDATE miembros SET nombre = ?, email = ?, telefono = ?, estado = ?, deuda_cuota = ?
		 WHERE club_id = ? AND id = ?`,
		m.Nombre, m.Email, m.Telefono, string(m.Estado), m.DeudaCuota.Units, m.ClubID, m.ID)
}

func (q *Queries) DeleteMiembro(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM miembros WHERE club_id = ? AND id = ?`, clubID, id)
}

// usuarios

const usuarioColumns = `id, club_id, email, nombre, rol`

func scanUsuario(s scanner) (core.Usuario, error) {
	var u core.Usuario
	err := s.Scan(&u.ID, &u.ClubID, &u.Email, &u.Nombre, &u.Rol)
	return u, err
}

func (q *Queries) ListUsuarios(ctx context.Context, clubID string) ([]core.Usuario, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE club_id = ? ORDER BY rowid`, clubID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUsuario)
}

func (q *Queries) GetUsuario(ctx context.Context, clubID, id string) (core.Usuario, error) {
	u, err := scanUsuario(q.db.QueryRowContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE club_id = ? AND id = ?`, clubID, id))
	return u, notFound(err)
}

func (q *Queries) CreateUsuario(ctx context.Context, u core.Usuario) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO usuarios (`+usuarioColumns+`) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.ClubID, u.Email, u.Nombre, string(u.Rol))
	return err
}

func (q *Queries) UpdateUsuario(ctx context.Context, u core.Usuario) error {
	return q.execOne(ctx, `UPDATE usuarios SET email = ?, nombre = ?, rol = ? WHERE club_id = ? AND id = ?`,
		u.Email, u.Nombre, string(u.Rol), u.ClubID, u.ID)
}

func (q *Queries) DeleteUsuario(ctx context.Context, clubID, id string) error {
	return q.execOne(ctx, `DELETE FROM usuarios WHERE club_id = ? AND id = ?`, clubID, id)
}

// audit_log

func (q *Queries) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	details, err := core.MarshalAuditDetails(e.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, club_id, usuario_id, accion, entidad, entidad_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ClubID, e.UsuarioID, e.Accion, e.Entidad, e.EntidadID, string(details), e.CreatedAt.UTC().Format(timeLayout))
	return err
}

func (q *Queries) ListAudit(ctx context.Context, clubID string, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, club_id, usuario_id, accion, entidad, entidad_id, details, created_at FROM audit_log
		 WHERE club_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, clubID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(s scanner) (core.AuditEntry, error) {
		var e core.AuditEntry
		var details sql.NullString
		var created string
		if err := s.Scan(&e.ID, &e.ClubID, &e.UsuarioID, &e.Accion, &e.Entidad, &e.EntidadID, &details, &created); err != nil {
			return core.AuditEntry{}, err
		}
		var err error
		if e.Details, err = core.UnmarshalAuditDetails([]byte(details.String)); err != nil {
			return core.AuditEntry{}, err
		}
		e.CreatedAt, err = parseTime(created)
		return e, err
	})
}
