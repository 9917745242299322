package aggregate

import (
	"github.com/shopspring/decimal"

	"colectas/internal/core"
)

// Resumen is the club-wide dashboard computed from a ledger snapshot.
type Resumen struct {
	TotalAportado         core.Money // estado aportado only
	AportesComprometidos  core.Money
	TotalIngresos         core.Money
	TotalGastado          core.Money
	Balance               core.Money // aportado + ingresos - gastado
	FaltanteTotalColectas core.Money // active colectas only

	ColectasActivas     int
	ColectasCerradas    int
	ColectasCompletadas int
	NumAportes          int
	NumGastos           int
	NumIngresos         int

	PromedioAporte decimal.Decimal
	PromedioGasto  decimal.Decimal

	TopMiembro   Group
	TopCategoria Group
	TopFuente    Group

	Deudas DeudasResumen

	MiembrosActivos int
	DeudaCuotas     core.Money
}

// DeudasResumen aggregates what the club owes its members.
type DeudasResumen struct {
	TotalOriginal  core.Money
	TotalPagado    core.Money
	TotalRestante  core.Money
	Pendientes     int
	ParcialPagadas int
	Pagadas        int
}

// Deudas summarizes debts; TotalRestante never goes below zero per debt.
func Deudas(deudas []core.Deuda) DeudasResumen {
	var r DeudasResumen
	for _, d := range deudas {
		r.TotalOriginal = r.TotalOriginal.Add(d.MontoOriginal)
		r.TotalPagado = r.TotalPagado.Add(d.MontoPagado)
		r.TotalRestante = r.TotalRestante.Add(d.MontoRestante.ClampZero())
		switch d.Estado {
		case core.DeudaPendiente:
			r.Pendientes++
		case core.DeudaParcialPagada:
			r.ParcialPagadas++
		case core.DeudaPagada:
			r.Pagadas++
		}
	}
	return r
}

// Dashboard computes the club-wide summary of l.
func Dashboard(l *core.Ledger) Resumen {
	received := Where(l.Aportes, IsAportado)

	r := Resumen{
		TotalAportado:        Total(received),
		AportesComprometidos: Total(Where(l.Aportes, IsComprometido)),
		TotalIngresos:        Total(l.Ingresos),
		TotalGastado:         Total(l.Gastos),
		NumAportes:           len(received),
		NumGastos:            len(l.Gastos),
		NumIngresos:          len(l.Ingresos),
		PromedioAporte:       Average(received),
		PromedioGasto:        Average(l.Gastos),
		Deudas:               Deudas(l.Deudas),
	}
	r.Balance = r.TotalAportado.Add(r.TotalIngresos).Sub(r.TotalGastado)

	for _, c := range l.Colectas {
		switch c.Estado {
		case core.ColectaActiva:
			r.ColectasActivas++
			cr := Colecta(c, l.Aportes, l.Gastos)
			r.FaltanteTotalColectas = r.FaltanteTotalColectas.Add(cr.Faltante)
		case core.ColectaCerrada:
			r.ColectasCerradas++
		case core.ColectaCompletada:
			r.ColectasCompletadas++
		}
	}

	r.TopMiembro, _ = TopEntry(ByMember(received))
	r.TopCategoria, _ = TopEntry(GroupTotals(l.Gastos, CategoriaKey))
	r.TopFuente, _ = TopEntry(GroupTotals(l.Ingresos, FuenteKey))

	for _, m := range l.Miembros {
		if m.Estado == core.MiembroActivo {
			r.MiembrosActivos++
		}
		r.DeudaCuotas = r.DeudaCuotas.Add(m.DeudaCuota.ClampZero())
	}
	return r
}

// CategoriaKey groups expenses by category.
func CategoriaKey(g core.Gasto) string { return g.Categoria }

// FuenteKey groups incomes by normalized source.
func FuenteKey(i core.Ingreso) string { return core.NormalizeFuente(i.Fuente) }

