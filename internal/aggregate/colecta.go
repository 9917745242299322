package aggregate

import "colectas/internal/core"

// ColectaResumen holds the derived figures of one campaign.
//
// Only contributions in estado "aportado" count toward TotalAportado,
// Faltante, Saldo and Porcentaje. Pledges are reported as Comprometido.
type ColectaResumen struct {
	Colecta        core.Colecta
	TotalAportado  core.Money
	Comprometido   core.Money
	TotalGastos    core.Money
	Faltante       core.Money
	Saldo          core.Money
	Porcentaje     int64
	NumAportes     int
	NumAportantes  int
	PromedioAporte core.Money
}

// Progress is Porcentaje clamped to 100 for rendering.
func (r ColectaResumen) Progress() int64 {
	return ProgressPercent(r.Porcentaje)
}

// IsAportado reports whether a contribution counts as received funds.
func IsAportado(a core.Aporte) bool { return a.Estado == core.AporteAportado }

// IsComprometido reports whether a contribution is only pledged.
func IsComprometido(a core.Aporte) bool { return a.Estado == core.AporteComprometido }

// Colecta computes the summary of c from the contributions and expenses
// linked to it. Records belonging to other campaigns are ignored.
func Colecta(c core.Colecta, aportes []core.Aporte, gastos []core.Gasto) ColectaResumen {
	own := Where(aportes, func(a core.Aporte) bool { return a.ColectaID == c.ID })
	ownGastos := Where(gastos, func(g core.Gasto) bool { return g.ColectaID == c.ID })

	received := Where(own, IsAportado)
	r := ColectaResumen{
		Colecta:       c,
		TotalAportado: Total(received),
		Comprometido:  Total(Where(own, IsComprometido)),
		TotalGastos:   Total(ownGastos),
		NumAportes:    len(received),
	}
	r.Faltante = c.Objetivo.Sub(r.TotalAportado).ClampZero()
	r.Saldo = r.TotalAportado.Sub(r.TotalGastos)
	r.Porcentaje = Porcentaje(r.TotalAportado, c.Objetivo)
	r.NumAportantes = len(GroupTotals(received, MemberKey))
	r.PromedioAporte = core.Money{Units: Average(received).Round(0).IntPart()}
	return r
}

// Colectas summarizes every campaign of a ledger, in ledger order.
func Colectas(l *core.Ledger) []ColectaResumen {
	out := make([]ColectaResumen, 0, len(l.Colectas))
	for _, c := range l.Colectas {
		out = append(out, Colecta(c, l.Aportes, l.Gastos))
	}
	return out
}

// MemberKey groups contributions by member ID, so namesakes stay apart.
// Records without a member reference group by their name snapshot.
func MemberKey(a core.Aporte) string {
	if a.MiembroID != "" {
		return a.MiembroID
	}
	return a.MiembroNombre
}

// MemberLabel is the display name of a contribution's member.
func MemberLabel(a core.Aporte) string {
	if a.MiembroNombre != "" {
		return a.MiembroNombre
	}
	return a.MiembroID
}

// ByMember groups contributions per member, labeled with the name snapshot.
func ByMember(aportes []core.Aporte) []Group {
	return GroupTotalsBy(aportes, MemberKey, MemberLabel)
}
