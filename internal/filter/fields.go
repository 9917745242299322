package filter

import "colectas/internal/core"

var (
	ColectaFields = Fields[core.Colecta]{
		Text:     func(c core.Colecta) []string { return []string{c.Nombre, c.Descripcion} },
		Category: func(c core.Colecta) string { return string(c.Estado) },
	}

	AporteFields = Fields[core.Aporte]{
		Text:     func(a core.Aporte) []string { return []string{a.MiembroNombre, a.Notas, string(a.MetodoPago)} },
		Category: func(a core.Aporte) string { return string(a.Estado) },
		Date:     func(a core.Aporte) core.Date { return a.Fecha },
	}

	GastoFields = Fields[core.Gasto]{
		Text:     func(g core.Gasto) []string { return []string{g.Concepto, g.QuienPagoNombre, g.Notas} },
		Category: func(g core.Gasto) string { return g.Categoria },
		Date:     func(g core.Gasto) core.Date { return g.Fecha },
	}

	IngresoFields = Fields[core.Ingreso]{
		Text:     func(i core.Ingreso) []string { return []string{i.Concepto, i.MiembroNombre} },
		Category: func(i core.Ingreso) string { return core.NormalizeFuente(i.Fuente) },
		Date:     func(i core.Ingreso) core.Date { return i.Fecha },
	}

	DeudaFields = Fields[core.Deuda]{
		Text:     func(d core.Deuda) []string { return []string{d.MiembroNombre, d.Concepto} },
		Category: func(d core.Deuda) string { return string(d.Estado) },
		Date:     func(d core.Deuda) core.Date { return d.Fecha },
	}

	MiembroFields = Fields[core.Miembro]{
		Text:     func(m core.Miembro) []string { return []string{m.Nombre, m.Email, m.Telefono} },
		Category: func(m core.Miembro) string { return string(m.Estado) },
	}
)
