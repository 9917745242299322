package http

import (
	"encoding/json"
	"time"

	"colectas/internal/aggregate"
	"colectas/internal/core"
	"colectas/internal/report"
)

// JSON views of the domain records. Amounts are whole units; dates are
// YYYY-MM-DD.

type listView[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func listOf[T, V any](items []T, view func(T) V) listView[V] {
	out := make([]V, 0, len(items))
	for _, it := range items {
		out = append(out, view(it))
	}
	return listView[V]{Items: out, Count: len(out)}
}

func dateView(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.ISO()
}

type colectaView struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	Objetivo    int64  `json:"objetivo"`
	Estado      string `json:"estado"`
	FechaCierre string `json:"fecha_cierre,omitempty"`
}

func viewColecta(c core.Colecta) colectaView {
	v := colectaView{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Objetivo:    c.Objetivo.Units,
		Estado:      string(c.Estado),
	}
	if c.FechaCierre != nil {
		v.FechaCierre = dateView(*c.FechaCierre)
	}
	return v
}

type colectaResumenView struct {
	colectaView
	TotalAportado  int64 `json:"total_aportado"`
	Comprometido   int64 `json:"comprometido"`
	TotalGastos    int64 `json:"total_gastos"`
	Faltante       int64 `json:"faltante"`
	Saldo          int64 `json:"saldo"`
	Porcentaje     int64 `json:"porcentaje"`
	Progreso       int64 `json:"progreso"`
	NumAportes     int   `json:"num_aportes"`
	NumAportantes  int   `json:"num_aportantes"`
	PromedioAporte int64 `json:"promedio_aporte"`
}

func viewColectaResumen(r aggregate.ColectaResumen) colectaResumenView {
	return colectaResumenView{
		colectaView:    viewColecta(r.Colecta),
		TotalAportado:  r.TotalAportado.Units,
		Comprometido:   r.Comprometido.Units,
		TotalGastos:    r.TotalGastos.Units,
		Faltante:       r.Faltante.Units,
		Saldo:          r.Saldo.Units,
		Porcentaje:     r.Porcentaje,
		Progreso:       r.Progress(),
		NumAportes:     r.NumAportes,
		NumAportantes:  r.NumAportantes,
		PromedioAporte: r.PromedioAporte.Units,
	}
}

// publicColectaView omits internal figures shown only to the treasury.
type publicColectaView struct {
	Nombre        string `json:"nombre"`
	Descripcion   string `json:"descripcion,omitempty"`
	Objetivo      int64  `json:"objetivo"`
	Estado        string `json:"estado"`
	TotalAportado int64  `json:"total_aportado"`
	Faltante      int64  `json:"faltante"`
	Porcentaje    int64  `json:"porcentaje"`
	Progreso      int64  `json:"progreso"`
	NumAportantes int    `json:"num_aportantes"`
}

func viewPublicColecta(r aggregate.ColectaResumen) publicColectaView {
	return publicColectaView{
		Nombre:        r.Colecta.Nombre,
		Descripcion:   r.Colecta.Descripcion,
		Objetivo:      r.Colecta.Objetivo.Units,
		Estado:        string(r.Colecta.Estado),
		TotalAportado: r.TotalAportado.Units,
		Faltante:      r.Faltante.Units,
		Porcentaje:    r.Porcentaje,
		Progreso:      r.Progress(),
		NumAportantes: r.NumAportantes,
	}
}

type aporteView struct {
	ID            string `json:"id"`
	ColectaID     string `json:"colecta_id,omitempty"`
	MiembroID     string `json:"miembro_id,omitempty"`
	MiembroNombre string `json:"miembro_nombre"`
	Cantidad      int64  `json:"cantidad"`
	Estado        string `json:"estado"`
	MetodoPago    string `json:"metodo_pago"`
	Fecha         string `json:"fecha"`
	Notas         string `json:"notas,omitempty"`
}

func viewAporte(a core.Aporte) aporteView {
	return aporteView{
		ID:            a.ID,
		ColectaID:     a.ColectaID,
		MiembroID:     a.MiembroID,
		MiembroNombre: a.MiembroNombre,
		Cantidad:      a.Cantidad.Units,
		Estado:        string(a.Estado),
		MetodoPago:    string(a.MetodoPago),
		Fecha:         dateView(a.Fecha),
		Notas:         a.Notas,
	}
}

type gastoView struct {
	ID              string `json:"id"`
	Concepto        string `json:"concepto"`
	Categoria       string `json:"categoria"`
	Cantidad        int64  `json:"cantidad"`
	QuienPagoID     string `json:"quien_pago_id,omitempty"`
	QuienPagoNombre string `json:"quien_pago_nombre,omitempty"`
	ColectaID       string `json:"colecta_id,omitempty"`
	TipoGasto       string `json:"tipo_gasto"`
	Fecha           string `json:"fecha"`
	Notas           string `json:"notas,omitempty"`
}

func viewGasto(g core.Gasto) gastoView {
	return gastoView{
		ID:              g.ID,
		Concepto:        g.Concepto,
		Categoria:       g.Categoria,
		Cantidad:        g.Cantidad.Units,
		QuienPagoID:     g.QuienPagoID,
		QuienPagoNombre: g.QuienPagoNombre,
		ColectaID:       g.ColectaID,
		TipoGasto:       string(g.TipoGasto),
		Fecha:           dateView(g.Fecha),
		Notas:           g.Notas,
	}
}

type ingresoView struct {
	ID            string `json:"id"`
	Concepto      string `json:"concepto"`
	Cantidad      int64  `json:"cantidad"`
	Fuente        string `json:"fuente"`
	MiembroID     string `json:"miembro_id,omitempty"`
	MiembroNombre string `json:"miembro_nombre,omitempty"`
	Fecha         string `json:"fecha"`
}

func viewIngreso(i core.Ingreso) ingresoView {
	return ingresoView{
		ID:            i.ID,
		Concepto:      i.Concepto,
		Cantidad:      i.Cantidad.Units,
		Fuente:        i.Fuente,
		MiembroID:     i.MiembroID,
		MiembroNombre: i.MiembroNombre,
		Fecha:         dateView(i.Fecha),
	}
}

type deudaView struct {
	ID            string `json:"id"`
	MiembroID     string `json:"miembro_id,omitempty"`
	MiembroNombre string `json:"miembro_nombre"`
	Concepto      string `json:"concepto"`
	MontoOriginal int64  `json:"monto_original"`
	MontoPagado   int64  `json:"monto_pagado"`
	MontoRestante int64  `json:"monto_restante"`
	Estado        string `json:"estado"`
	Fecha         string `json:"fecha"`
}

func viewDeuda(d core.Deuda) deudaView {
	return deudaView{
		ID:            d.ID,
		MiembroID:     d.MiembroID,
		MiembroNombre: d.MiembroNombre,
		Concepto:      d.Concepto,
		MontoOriginal: d.MontoOriginal.Units,
		MontoPagado:   d.MontoPagado.Units,
		MontoRestante: d.MontoRestante.Units,
		Estado:        string(d.Estado),
		Fecha:         dateView(d.Fecha),
	}
}

type pagoView struct {
	ID      string    `json:"id"`
	DeudaID string    `json:"deuda_id"`
	Monto   int64     `json:"monto"`
	Fecha   time.Time `json:"fecha"`
	Notas   string    `json:"notas,omitempty"`
}

func viewPago(p core.PagoDeuda) pagoView {
	return pagoView{ID: p.ID, DeudaID: p.DeudaID, Monto: p.Monto.Units, Fecha: p.Fecha, Notas: p.Notas}
}

type pagoResultView struct {
	Deuda deudaView `json:"deuda"`
	Pago  pagoView  `json:"pago"`
}

type miembroView struct {
	ID         string `json:"id"`
	Nombre     string `json:"nombre"`
	Email      string `json:"email,omitempty"`
	Telefono   string `json:"telefono,omitempty"`
	Estado     string `json:"estado"`
	DeudaCuota int64  `json:"deuda_cuota"`
}

func viewMiembro(m core.Miembro) miembroView {
	return miembroView{
		ID:         m.ID,
		Nombre:     m.Nombre,
		Email:      m.Email,
		Telefono:   m.Telefono,
		Estado:     string(m.Estado),
		DeudaCuota: m.DeudaCuota.Units,
	}
}

type usuarioView struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre,omitempty"`
	Rol    string `json:"rol"`
}

func viewUsuario(u core.Usuario) usuarioView {
	return usuarioView{ID: u.ID, Email: u.Email, Nombre: u.Nombre, Rol: string(u.Rol)}
}

type auditView struct {
	ID        string          `json:"id"`
	UsuarioID string          `json:"usuario_id"`
	Accion    string          `json:"accion"`
	Entidad   string          `json:"entidad"`
	EntidadID string          `json:"entidad_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func viewAudit(e core.AuditEntry) auditView {
	v := auditView{
		ID:        e.ID,
		UsuarioID: e.UsuarioID,
		Accion:    e.Accion,
		Entidad:   e.Entidad,
		EntidadID: e.EntidadID,
		CreatedAt: e.CreatedAt,
	}
	if e.Details != nil {
		if b, err := core.MarshalAuditDetails(e.Details); err == nil {
			v.Details = b
		}
	}
	return v
}

type groupView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total int64  `json:"total"`
	Count int    `json:"count"`
}

func viewGroup(g aggregate.Group) groupView {
	return groupView{Key: g.Key, Label: g.Label, Total: g.Total.Units, Count: g.Count}
}

type dashboardView struct {
	TotalAportado         int64  `json:"total_aportado"`
	AportesComprometidos  int64  `json:"aportes_comprometidos"`
	TotalIngresos         int64  `json:"total_ingresos"`
	TotalGastado          int64  `json:"total_gastado"`
	Balance               int64  `json:"balance"`
	FaltanteTotalColectas int64  `json:"faltante_total_colectas"`
	ColectasActivas       int    `json:"colectas_activas"`
	ColectasCerradas      int    `json:"colectas_cerradas"`
	ColectasCompletadas   int    `json:"colectas_completadas"`
	NumAportes            int    `json:"num_aportes"`
	NumGastos             int    `json:"num_gastos"`
	NumIngresos           int    `json:"num_ingresos"`
	PromedioAporte        string `json:"promedio_aporte"`
	PromedioGasto         string `json:"promedio_gasto"`

	TopMiembro   groupView `json:"top_miembro"`
	TopCategoria groupView `json:"top_categoria"`
	TopFuente    groupView `json:"top_fuente"`

	Deudas struct {
		TotalOriginal  int64 `json:"total_original"`
		TotalPagado    int64 `json:"total_pagado"`
		TotalRestante  int64 `json:"total_restante"`
		Pendientes     int   `json:"pendientes"`
		ParcialPagadas int   `json:"parcial_pagadas"`
		Pagadas        int   `json:"pagadas"`
	} `json:"deudas"`

	MiembrosActivos int   `json:"miembros_activos"`
	DeudaCuotas     int64 `json:"deuda_cuotas"`
}

func viewDashboard(r aggregate.Resumen) dashboardView {
	v := dashboardView{
		TotalAportado:         r.TotalAportado.Units,
		AportesComprometidos:  r.AportesComprometidos.Units,
		TotalIngresos:         r.TotalIngresos.Units,
		TotalGastado:          r.TotalGastado.Units,
		Balance:               r.Balance.Units,
		FaltanteTotalColectas: r.FaltanteTotalColectas.Units,
		ColectasActivas:       r.ColectasActivas,
		ColectasCerradas:      r.ColectasCerradas,
		ColectasCompletadas:   r.ColectasCompletadas,
		NumAportes:            r.NumAportes,
		NumGastos:             r.NumGastos,
		NumIngresos:           r.NumIngresos,
		PromedioAporte:        r.PromedioAporte.StringFixed(2),
		PromedioGasto:         r.PromedioGasto.StringFixed(2),
		TopMiembro:            viewGroup(r.TopMiembro),
		TopCategoria:          viewGroup(r.TopCategoria),
		TopFuente:             viewGroup(r.TopFuente),
		MiembrosActivos:       r.MiembrosActivos,
		DeudaCuotas:           r.DeudaCuotas.Units,
	}
	v.Deudas.TotalOriginal = r.Deudas.TotalOriginal.Units
	v.Deudas.TotalPagado = r.Deudas.TotalPagado.Units
	v.Deudas.TotalRestante = r.Deudas.TotalRestante.Units
	v.Deudas.Pendientes = r.Deudas.Pendientes
	v.Deudas.ParcialPagadas = r.Deudas.ParcialPagadas
	v.Deudas.Pagadas = r.Deudas.Pagadas
	return v
}

type tableView struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func viewTable(t report.Table) tableView {
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return tableView{Title: t.Title, Headers: t.Headers, Rows: rows}
}
