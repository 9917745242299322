package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colectas/internal/core"
)

func aporte(colecta, miembro string, units int64, estado core.EstadoAporte) core.Aporte {
	return core.Aporte{
		ClubID:        "club",
		ColectaID:     colecta,
		MiembroID:     miembro,
		MiembroNombre: miembro,
		Cantidad:      core.Money{Units: units},
		Estado:        estado,
		MetodoPago:    core.PagoEfectivo,
		Fecha:         core.NewDate(2025, 4, 10),
	}
}

func gasto(categoria string, units int64) core.Gasto {
	return core.Gasto{
		ClubID:    "club",
		Concepto:  categoria,
		Categoria: categoria,
		Cantidad:  core.Money{Units: units},
		TipoGasto: core.GastoGeneral,
		Fecha:     core.NewDate(2025, 4, 12),
	}
}

func TestAverageEmptyIsZero(t *testing.T) {
	assert.True(t, Average([]core.Aporte{}).IsZero())
	assert.True(t, Average[core.Gasto](nil).IsZero())
	assert.True(t, Average([]core.Deuda{}).IsZero())
}

func TestAverage(t *testing.T) {
	got := Average([]core.Gasto{gasto("a", 10), gasto("b", 20), gasto("c", 20)})
	assert.True(t, got.Equal(decimal.RequireFromString("16.67")), "got %s", got)
}

func TestTotalOfDebtsUsesRemaining(t *testing.T) {
	d := core.NewDeuda("club", "m", "M", "x", core.Money{Units: 100}, core.NewDate(2025, 1, 1))
	require.NoError(t, d.RegistrarPago(core.Money{Units: 30}))
	assert.Equal(t, int64(70), Total([]core.Deuda{d}).Units)
}

func TestTopEntryEmpty(t *testing.T) {
	g, ok := TopEntry(nil)
	assert.False(t, ok)
	assert.Equal(t, NotAvailable, g.Key)
}

func TestTopEntryTieBreaksLexicographically(t *testing.T) {
	groups := GroupTotals([]core.Gasto{
		gasto("viajes", 500),
		gasto("cancha", 300),
		gasto("arbitros", 500),
		gasto("cancha", 200),
	}, CategoriaKey)

	top, ok := TopEntry(groups)
	require.True(t, ok)
	assert.Equal(t, "arbitros", top.Key)
	assert.Equal(t, int64(500), top.Total.Units)

	sorted := SortByTotal(groups)
	keys := []string{sorted[0].Key, sorted[1].Key, sorted[2].Key}
	assert.Equal(t, []string{"arbitros", "cancha", "viajes"}, keys)
}

func TestGroupTotalsPreservesFirstSeenOrder(t *testing.T) {
	groups := GroupTotals([]core.Gasto{gasto("z", 1), gasto("a", 2), gasto("z", 3)}, CategoriaKey)
	require.Len(t, groups, 2)
	assert.Equal(t, "z", groups[0].Key)
	assert.Equal(t, int64(4), groups[0].Total.Units)
	assert.Equal(t, 2, groups[0].Count)
}

func TestPorcentaje(t *testing.T) {
	cases := []struct {
		total, objetivo, want int64
	}{
		{7_500_000, 10_000_000, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1}, // 0.5 rounds half up
		{15, 10, 150},
		{5, 0, 0},
	}
	for _, tc := range cases {
		got := Porcentaje(core.Money{Units: tc.total}, core.Money{Units: tc.objetivo})
		assert.Equal(t, tc.want, got, "Porcentaje(%d, %d)", tc.total, tc.objetivo)
	}
	assert.Equal(t, int64(100), ProgressPercent(150))
	assert.Equal(t, int64(0), ProgressPercent(-3))
}

func TestColectaScenario(t *testing.T) {
	c := core.Colecta{ID: "col1", ClubID: "club", Nombre: "Torneo", Objetivo: core.Money{Units: 10_000_000}, Estado: core.ColectaActiva}
	aportes := []core.Aporte{
		aporte("col1", "ana", 2_000_000, core.AporteAportado),
		aporte("col1", "luis", 2_500_000, core.AporteAportado),
		aporte("col1", "ana", 1_500_000, core.AporteAportado),
		aporte("col1", "eva", 1_500_000, core.AporteAportado),
		aporte("col1", "juan", 2_000_000, core.AporteComprometido),
		aporte("otra", "juan", 9_000_000, core.AporteAportado),
	}
	gastos := []core.Gasto{gasto("cancha", 1_000_000)}
	gastos[0].ColectaID = "col1"

	r := Colecta(c, aportes, gastos)
	assert.Equal(t, int64(7_500_000), r.TotalAportado.Units)
	assert.Equal(t, int64(2_000_000), r.Comprometido.Units)
	assert.Equal(t, int64(2_500_000), r.Faltante.Units)
	assert.Equal(t, int64(75), r.Porcentaje)
	assert.Equal(t, int64(6_500_000), r.Saldo.Units)
	assert.Equal(t, 4, r.NumAportes)
	assert.Equal(t, 3, r.NumAportantes)
}

func TestColectaFaltanteNeverNegative(t *testing.T) {
	c := core.Colecta{ID: "c", Objetivo: core.Money{Units: 100}, Estado: core.ColectaActiva}
	r := Colecta(c, []core.Aporte{aporte("c", "a", 250, core.AporteAportado)}, nil)
	assert.Equal(t, int64(0), r.Faltante.Units)
	assert.Equal(t, int64(250), r.Porcentaje)
	assert.Equal(t, int64(100), r.Progress())
}

func TestDashboard(t *testing.T) {
	l := &core.Ledger{
		Colectas: []core.Colecta{
			{ID: "a", Objetivo: core.Money{Units: 1000}, Estado: core.ColectaActiva},
			{ID: "b", Objetivo: core.Money{Units: 500}, Estado: core.ColectaCerrada},
			{ID: "c", Objetivo: core.Money{Units: 300}, Estado: core.ColectaActiva},
		},
		Aportes: []core.Aporte{
			aporte("a", "ana", 400, core.AporteAportado),
			aporte("a", "luis", 700, core.AporteComprometido),
			aporte("c", "luis", 400, core.AporteAportado),
			aporte("", "eva", 100, core.AporteAportado),
		},
		Gastos: []core.Gasto{gasto("cancha", 150), gasto("viajes", 250)},
		Ingresos: []core.Ingreso{
			{Concepto: "Rifa", Cantidad: core.Money{Units: 50}, Fuente: "rifas"},
			{Concepto: "Sponsor", Cantidad: core.Money{Units: 80}, Fuente: "patrocinio"},
		},
		Miembros: []core.Miembro{
			{Nombre: "ana", Estado: core.MiembroActivo, DeudaCuota: core.Money{Units: 20}},
			{Nombre: "luis", Estado: core.MiembroInactivo},
		},
	}

	r := Dashboard(l)
	assert.Equal(t, int64(900), r.TotalAportado.Units)
	assert.Equal(t, int64(700), r.AportesComprometidos.Units)
	assert.Equal(t, int64(130), r.TotalIngresos.Units)
	assert.Equal(t, int64(400), r.TotalGastado.Units)
	assert.Equal(t, int64(630), r.Balance.Units)
	// a: 1000-400 = 600, c: 300-400 clamps to 0, b is closed
	assert.Equal(t, int64(600), r.FaltanteTotalColectas.Units)
	assert.Equal(t, 2, r.ColectasActivas)
	assert.Equal(t, 1, r.ColectasCerradas)
	assert.Equal(t, "ana", r.TopMiembro.Key) // ana and luis tie at 400
	assert.Equal(t, "viajes", r.TopCategoria.Key)
	assert.Equal(t, "patrocinios", r.TopFuente.Key)
	assert.Equal(t, 1, r.MiembrosActivos)
	assert.Equal(t, int64(20), r.DeudaCuotas.Units)
}

func TestDashboardEmptyLedger(t *testing.T) {
	r := Dashboard(&core.Ledger{})
	assert.Equal(t, NotAvailable, r.TopMiembro.Key)
	assert.Equal(t, NotAvailable, r.TopCategoria.Key)
	assert.True(t, r.PromedioAporte.IsZero())
	assert.Equal(t, int64(0), r.Balance.Units)
}

func TestByMonth(t *testing.T) {
	g1 := gasto("a", 10)
	g1.Fecha = core.NewDate(2025, 3, 1)
	g2 := gasto("a", 5)
	g2.Fecha = core.NewDate(2024, 12, 31)
	g3 := gasto("a", 1)
	g3.Fecha = core.NewDate(2025, 3, 30)

	groups := ByMonth([]core.Gasto{g1, g2, g3})
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-12", groups[0].Key)
	assert.Equal(t, "2025-03", groups[1].Key)
	assert.Equal(t, int64(11), groups[1].Total.Units)
}

func TestByMemberKeepsNamesakesApart(t *testing.T) {
	a1 := aporte("c", "m1", 300, core.AporteAportado)
	a2 := aporte("c", "m2", 300, core.AporteAportado)
	a3 := aporte("c", "m3", 500, core.AporteAportado)
	a1.MiembroNombre, a2.MiembroNombre, a3.MiembroNombre = "Ana", "Ana", "Luis"
	anon := aporte("c", "", 50, core.AporteAportado)
	anon.MiembroNombre = "Invitado"

	groups := ByMember([]core.Aporte{a1, a2, a3, anon})
	require.Len(t, groups, 4)
	assert.Equal(t, "m1", groups[0].Key)
	assert.Equal(t, "Ana", groups[0].Label)
	assert.Equal(t, "Invitado", groups[3].Key)

	top, ok := TopEntry(groups)
	require.True(t, ok)
	assert.Equal(t, "Luis", top.Label)

	r := Colecta(core.Colecta{ID: "c", Objetivo: core.Money{Units: 2000}}, []core.Aporte{a1, a2, a3}, nil)
	assert.Equal(t, 3, r.NumAportantes)
}
