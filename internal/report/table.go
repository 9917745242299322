package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"colectas/internal/aggregate"
	"colectas/internal/core"
	"colectas/internal/filter"
)

// Entity names accepted by EntityTable and used in export file names.
const (
	EntityColectas = "colectas"
	EntityAportes  = "aportes"
	EntityGastos   = "gastos"
	EntityIngresos = "ingresos"
	EntityDeudas   = "deudas"
	EntityMiembros = "miembros"
)

var ErrUnknownEntity = errors.New("unknown export entity")

// Entities lists the exportable entities in display order.
var Entities = []string{EntityColectas, EntityAportes, EntityGastos, EntityIngresos, EntityDeudas, EntityMiembros}

// Table is a flat header + rows shape; every cell is already stringified.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// withPlaceholder returns t with a single NoData row when it has no rows.
func (t Table) withPlaceholder() Table {
	if len(t.Rows) > 0 {
		return t
	}
	row := make([]string, max(len(t.Headers), 1))
	row[0] = NoData
	t.Rows = [][]string{row}
	return t
}

// EntityTable filters the records of entity from l and renders them as a
// table ready for CSV or spreadsheet export.
func EntityTable(entity string, l *core.Ledger, c filter.Criteria, now time.Time) (Table, error) {
	switch strings.ToLower(entity) {
	case EntityColectas:
		colectas := filter.Apply(l.Colectas, c, now, filter.ColectaFields)
		res := make([]aggregate.ColectaResumen, 0, len(colectas))
		for _, col := range colectas {
			res = append(res, aggregate.Colecta(col, l.Aportes, l.Gastos))
		}
		return ColectasTable(res), nil
	case EntityAportes:
		return AportesTable(filter.Apply(l.Aportes, c, now, filter.AporteFields), colectaNames(l)), nil
	case EntityGastos:
		return GastosTable(filter.Apply(l.Gastos, c, now, filter.GastoFields), colectaNames(l)), nil
	case EntityIngresos:
		return IngresosTable(filter.Apply(l.Ingresos, c, now, filter.IngresoFields)), nil
	case EntityDeudas:
		return DeudasTable(filter.Apply(l.Deudas, c, now, filter.DeudaFields)), nil
	case EntityMiembros:
		return MiembrosTable(filter.Apply(l.Miembros, c, now, filter.MiembroFields)), nil
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func colectaNames(l *core.Ledger) map[string]string {
	names := make(map[string]string, len(l.Colectas))
	for _, c := range l.Colectas {
		names[c.ID] = c.Nombre
	}
	return names
}

func colectaLabel(names map[string]string, id string) string {
	if id == "" {
		return "General"
	}
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

func ColectasTable(rs []aggregate.ColectaResumen) Table {
	t := Table{
		Title:   "Colectas",
		Headers: []string{"Nombre", "Estado", "Objetivo", "Aportado", "Comprometido", "Faltante", "Gastos", "Saldo", "Progreso"},
	}
	for _, r := range rs {
		t.Rows = append(t.Rows, []string{
			r.Colecta.Nombre,
			Label(string(r.Colecta.Estado)),
			Full(r.Colecta.Objetivo),
			Full(r.TotalAportado),
			Full(r.Comprometido),
			Full(r.Faltante),
			Full(r.TotalGastos),
			Full(r.Saldo),
			Percent(r.Porcentaje),
		})
	}
	return t
}

func AportesTable(as []core.Aporte, colectas map[string]string) Table {
	t := Table{
		Title:   "Aportes",
		Headers: []string{"Fecha", "Miembro", "Colecta", "Cantidad", "Estado", "Método de pago", "Notas"},
	}
	for _, a := range as {
		t.Rows = append(t.Rows, []string{
			FormatDate(a.Fecha),
			a.MiembroNombre,
			colectaLabel(colectas, a.ColectaID),
			Full(a.Cantidad),
			Label(string(a.Estado)),
			Label(string(a.MetodoPago)),
			a.Notas,
		})
	}
	return t
}

func GastosTable(gs []core.Gasto, colectas map[string]string) Table {
	t := Table{
		Title:   "Gastos",
		Headers: []string{"Fecha", "Concepto", "Categoría", "Cantidad", "Pagado por", "Colecta", "Tipo", "Notas"},
	}
	for _, g := range gs {
		t.Rows = append(t.Rows, []string{
			FormatDate(g.Fecha),
			g.Concepto,
			Label(g.Categoria),
			Full(g.Cantidad),
			g.QuienPagoNombre,
			colectaLabel(colectas, g.ColectaID),
			Label(string(g.TipoGasto)),
			g.Notas,
		})
	}
	return t
}

func IngresosTable(is []core.Ingreso) Table {
	t := Table{
		Title:   "Ingresos",
		Headers: []string{"Fecha", "Concepto", "Fuente", "Cantidad", "Miembro"},
	}
	for _, i := range is {
		t.Rows = append(t.Rows, []string{
			FormatDate(i.Fecha),
			i.Concepto,
			Label(core.NormalizeFuente(i.Fuente)),
			Full(i.Cantidad),
			i.MiembroNombre,
		})
	}
	return t
}

func DeudasTable(ds []core.Deuda) Table {
	t := Table{
		Title:   "Deudas",
		Headers: []string{"Fecha", "Miembro", "Concepto", "Monto original", "Pagado", "Restante", "Estado"},
	}
	for _, d := range ds {
		t.Rows = append(t.Rows, []string{
			FormatDate(d.Fecha),
			d.MiembroNombre,
			d.Concepto,
			Full(d.MontoOriginal),
			Full(d.MontoPagado),
			Full(d.MontoRestante),
			Label(string(d.Estado)),
		})
	}
	return t
}

func MiembrosTable(ms []core.Miembro) Table {
	t := Table{
		Title:   "Miembros",
		Headers: []string{"Nombre", "Email", "Teléfono", "Estado", "Deuda de cuota"},
	}
	for _, m := range ms {
		t.Rows = append(t.Rows, []string{
			m.Nombre,
			m.Email,
			m.Telefono,
			Label(string(m.Estado)),
			Full(m.DeudaCuota),
		})
	}
	return t
}

// BreakdownTable lists groups by descending total with their share of the
// grand total.
func BreakdownTable(title, keyHeader string, groups []aggregate.Group) Table {
	t := Table{
		Title:   title,
		Headers: []string{keyHeader, "Cantidad", "Registros", "Porcentaje"},
	}
	var whole core.Money
	for _, g := range groups {
		whole = whole.Add(g.Total)
	}
	for _, g := range aggregate.SortByTotal(groups) {
		t.Rows = append(t.Rows, []string{
			Label(g.Label),
			Full(g.Total),
			fmt.Sprintf("%d", g.Count),
			aggregate.Share(g.Total, whole).StringFixed(1) + "%",
		})
	}
	return t
}

// movement is one line of the chronological ledger listing.
type movement struct {
	fecha    core.Date
	tipo     string
	concepto string
	monto    core.Money // signed: positive in, negative out
}

// MovimientosTable merges received contributions, incomes and expenses into
// one chronological listing with a running balance.
func MovimientosTable(l *core.Ledger) Table {
	var ms []movement
	for _, a := range aggregate.Where(l.Aportes, aggregate.IsAportado) {
		ms = append(ms, movement{a.Fecha, "Aporte", a.MiembroNombre, a.Cantidad})
	}
	for _, i := range l.Ingresos {
		ms = append(ms, movement{i.Fecha, "Ingreso", i.Concepto, i.Cantidad})
	}
	for _, g := range l.Gastos {
		ms = append(ms, movement{g.Fecha, "Gasto", g.Concepto, core.Money{Units: -g.Cantidad.Units}})
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].fecha.Before(ms[j].fecha.Time) })

	t := Table{
		Title:   "Movimientos",
		Headers: []string{"Fecha", "Tipo", "Concepto", "Monto", "Saldo acumulado"},
	}
	var running core.Money
	for _, m := range ms {
		running = running.Add(m.monto)
		t.Rows = append(t.Rows, []string{FormatDate(m.fecha), m.tipo, m.concepto, Full(m.monto), Full(running)})
	}
	return t
}
