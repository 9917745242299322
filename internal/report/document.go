package report

import (
	"fmt"
	"time"

	"colectas/internal/aggregate"
	"colectas/internal/core"
	"colectas/internal/filter"
)

// Source is one independently loaded slice of the ledger.
type Source string

const (
	SourceColectas Source = "colectas"
	SourceAportes  Source = "aportes"
	SourceGastos   Source = "gastos"
	SourceIngresos Source = "ingresos"
	SourceDeudas   Source = "deudas"
	SourceMiembros Source = "miembros"
)

// Sources lists every source in load order.
var Sources = []Source{SourceColectas, SourceAportes, SourceGastos, SourceIngresos, SourceDeudas, SourceMiembros}

type SectionID string

const (
	SectionCover     SectionID = "cover"
	SectionSummary   SectionID = "summary"
	SectionFinance   SectionID = "finance"
	SectionAlerts    SectionID = "alerts"
	SectionItemized  SectionID = "itemized"
	SectionBreakdown SectionID = "breakdown"
	SectionListing   SectionID = "listing"
)

// SectionOrder is the fixed order of sections in every document.
var SectionOrder = []SectionID{
	SectionCover, SectionSummary, SectionFinance, SectionAlerts,
	SectionItemized, SectionBreakdown, SectionListing,
}

type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockText
	BlockKeyValues
	BlockTable
)

type KeyValue struct {
	Key   string
	Value string
}

// Block is one drawable unit. Exactly one payload field is set, matching
// Kind.
type Block struct {
	Kind  BlockKind
	Text  string
	Pairs []KeyValue
	Table Table
}

type Section struct {
	ID     SectionID
	Title  string
	Blocks []Block
}

type Document struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Location    *time.Location
	Sections    []Section
}

// ReportData is what the composer needs. Failed holds the sources whose
// fetch failed; Ledger carries whatever did load.
type ReportData struct {
	ClubNombre   string
	Ledger       *core.Ledger
	Failed       map[Source]error
	Period       filter.Period
	LowBalance   core.Money
	Location     *time.Location
	MaxListItems int
}

func (d ReportData) ok(s Source) bool {
	_, failed := d.Failed[s]
	return !failed
}

func periodLabel(p filter.Period) string {
	switch p {
	case filter.PeriodMonth:
		return "este mes"
	case filter.PeriodQuarter:
		return "este trimestre"
	case filter.PeriodYear:
		return "este año"
	}
	return "todo el período"
}

// Compose builds the club report. Sources that failed to load are shown
// with a NoData placeholder and a note; the other sections are unaffected.
func Compose(data ReportData, now time.Time) Document {
	l := data.Ledger
	if l == nil {
		l = &core.Ledger{}
	}
	if data.Period == "" {
		data.Period = filter.PeriodMonth
	}
	resumen := aggregate.Dashboard(l)

	doc := Document{
		Title:       "Informe financiero",
		Subtitle:    data.ClubNombre,
		GeneratedAt: now,
		Location:    data.Location,
	}
	doc.Sections = []Section{
		coverSection(data, l, now),
		summarySection(data, resumen),
		financeSection(data, resumen),
		alertsSection(data, l, resumen, now),
		itemizedSection(data, l),
		breakdownSection(data, l),
		listingSection(data, l),
	}
	return doc
}

// coverSection states the scope of the report. The period only drives the
// period result and its alert; the listings cover every record.
func coverSection(data ReportData, l *core.Ledger, now time.Time) Section {
	pairs := []KeyValue{
		{"Club", data.ClubNombre},
		{"Resultado de " + periodLabel(data.Period), Full(PeriodResult(l, data.Period, now))},
		{"Registros incluidos", "Todos"},
		{"Fecha de emisión", FormatTimestamp(now, data.Location)},
	}
	blocks := []Block{{Kind: BlockHeading, Text: "Informe financiero"}, {Kind: BlockKeyValues, Pairs: pairs}}
	if missing := data.missing(); missing != "" {
		blocks = append(blocks, Block{Kind: BlockText, Text: "Datos incompletos: no se pudieron cargar " + missing + "."})
	}
	return Section{ID: SectionCover, Title: "Portada", Blocks: blocks}
}

func (d ReportData) missing() string {
	var s string
	for _, src := range Sources {
		if d.ok(src) {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += string(src)
	}
	return s
}

func summarySection(data ReportData, r aggregate.Resumen) Section {
	pairs := []KeyValue{
		{"Balance general", Full(r.Balance)},
		{"Total aportado", Full(r.TotalAportado)},
		{"Otros ingresos", Full(r.TotalIngresos)},
		{"Total gastado", Full(r.TotalGastado)},
		{"Faltante en colectas activas", Full(r.FaltanteTotalColectas)},
		{"Colectas activas / cerradas / completadas", fmt.Sprintf("%d / %d / %d", r.ColectasActivas, r.ColectasCerradas, r.ColectasCompletadas)},
		{"Miembros activos", fmt.Sprintf("%d", r.MiembrosActivos)},
		{"Principal aportante", topLabel(r.TopMiembro)},
		{"Principal categoría de gasto", topLabel(r.TopCategoria)},
		{"Principal fuente de ingreso", topLabel(r.TopFuente)},
	}
	return Section{ID: SectionSummary, Title: "Resumen ejecutivo", Blocks: []Block{
		{Kind: BlockHeading, Text: "Resumen ejecutivo"},
		{Kind: BlockKeyValues, Pairs: pairs},
	}}
}

func topLabel(g aggregate.Group) string {
	if g.Key == aggregate.NotAvailable {
		return aggregate.NotAvailable
	}
	return Label(g.Label) + " (" + Full(g.Total) + ")"
}

func financeSection(data ReportData, r aggregate.Resumen) Section {
	ingresos := r.TotalAportado.Add(r.TotalIngresos)
	pairs := []KeyValue{
		{"Aportes recibidos", Full(r.TotalAportado)},
		{"Aportes comprometidos", Full(r.AportesComprometidos)},
		{"Ingresos varios", Full(r.TotalIngresos)},
		{"Total ingresos", Full(ingresos)},
		{"Total gastos", Full(r.TotalGastado)},
		{"Resultado", Full(r.Balance)},
		{"Promedio por aporte", Full(core.Money{Units: r.PromedioAporte.Round(0).IntPart()})},
		{"Promedio por gasto", Full(core.Money{Units: r.PromedioGasto.Round(0).IntPart()})},
		{"Deudas con miembros (restante)", Full(r.Deudas.TotalRestante)},
		{"Deudas pendientes / parciales / pagadas", fmt.Sprintf("%d / %d / %d", r.Deudas.Pendientes, r.Deudas.ParcialPagadas, r.Deudas.Pagadas)},
		{"Cuotas adeudadas por miembros", Full(r.DeudaCuotas)},
	}
	return Section{ID: SectionFinance, Title: "Situación financiera", Blocks: []Block{
		{Kind: BlockHeading, Text: "Situación financiera"},
		{Kind: BlockKeyValues, Pairs: pairs},
	}}
}

// PeriodResult is aportes received plus incomes minus expenses dated
// within period p relative to now.
func PeriodResult(l *core.Ledger, p filter.Period, now time.Time) core.Money {
	in := func(d core.Date) bool { return filter.InPeriod(d, p, now) }
	var r core.Money
	for _, a := range l.Aportes {
		if aggregate.IsAportado(a) && in(a.Fecha) {
			r = r.Add(a.Cantidad)
		}
	}
	for _, i := range l.Ingresos {
		if in(i.Fecha) {
			r = r.Add(i.Cantidad)
		}
	}
	for _, g := range l.Gastos {
		if in(g.Fecha) {
			r = r.Sub(g.Cantidad)
		}
	}
	return r
}

func alertsSection(data ReportData, l *core.Ledger, r aggregate.Resumen, now time.Time) Section {
	alerts := Alerts(AlertInput{
		Resumen:      r,
		PeriodResult: PeriodResult(l, data.Period, now),
		PeriodLabel:  periodLabel(data.Period),
		Threshold:    data.LowBalance,
		Complete:     data.ok(SourceAportes) && data.ok(SourceGastos) && data.ok(SourceIngresos),
		HasColectas:  data.ok(SourceColectas),
	})
	s := Section{ID: SectionAlerts, Title: "Alertas", Blocks: []Block{{Kind: BlockHeading, Text: "Alertas y avisos"}}}
	if len(alerts) == 0 {
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Text: "Sin alertas."})
		return s
	}
	for _, a := range alerts {
		prefix := "Aviso"
		if a.Level == AlertWarning {
			prefix = "Atención"
		}
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Text: prefix + " - " + a.Title + ": " + a.Message})
	}
	return s
}

// sourceBlocks wraps t as a table block, adding the failure note when src did
// not load.
func (d ReportData) sourceBlocks(src Source, t Table) []Block {
	if !d.ok(src) {
		t.Rows = nil
		return []Block{
			{Kind: BlockText, Text: "No se pudieron cargar los datos de " + string(src) + "."},
			{Kind: BlockTable, Table: t.withPlaceholder()},
		}
	}
	return []Block{{Kind: BlockTable, Table: t.withPlaceholder()}}
}

func (d ReportData) limit(t Table) Table {
	if d.MaxListItems > 0 && len(t.Rows) > d.MaxListItems {
		t.Title = fmt.Sprintf("%s (últimos %d de %d)", t.Title, d.MaxListItems, len(t.Rows))
		t.Rows = t.Rows[len(t.Rows)-d.MaxListItems:]
	}
	return t
}

func itemizedSection(data ReportData, l *core.Ledger) Section {
	names := colectaNames(l)
	s := Section{ID: SectionItemized, Title: "Detalle por tipo", Blocks: []Block{{Kind: BlockHeading, Text: "Detalle por tipo de registro"}}}
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceColectas, ColectasTable(aggregate.Colectas(l)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceAportes, data.limit(AportesTable(l.Aportes, names)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceGastos, data.limit(GastosTable(l.Gastos, names)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceIngresos, data.limit(IngresosTable(l.Ingresos)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceDeudas, DeudasTable(l.Deudas))...)
	return s
}

func breakdownSection(data ReportData, l *core.Ledger) Section {
	received := aggregate.Where(l.Aportes, aggregate.IsAportado)
	s := Section{ID: SectionBreakdown, Title: "Desglose", Blocks: []Block{{Kind: BlockHeading, Text: "Desglose por categoría y fuente"}}}
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceGastos,
		BreakdownTable("Gastos por categoría", "Categoría", aggregate.GroupTotals(l.Gastos, aggregate.CategoriaKey)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceIngresos,
		BreakdownTable("Ingresos por fuente", "Fuente", aggregate.GroupTotals(l.Ingresos, aggregate.FuenteKey)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceAportes,
		BreakdownTable("Aportes por miembro", "Miembro", aggregate.ByMember(received)))...)
	s.Blocks = append(s.Blocks, data.sourceBlocks(SourceGastos,
		BreakdownTable("Gastos por mes", "Mes", aggregate.ByMonth(l.Gastos)))...)
	return s
}

func listingSection(data ReportData, l *core.Ledger) Section {
	t := MovimientosTable(l)
	blocks := []Block{{Kind: BlockHeading, Text: "Listado detallado de movimientos"}}
	if !data.ok(SourceAportes) || !data.ok(SourceGastos) || !data.ok(SourceIngresos) {
		blocks = append(blocks, Block{Kind: BlockText, Text: "El listado omite las fuentes que no se pudieron cargar."})
	}
	blocks = append(blocks, Block{Kind: BlockTable, Table: data.limit(t).withPlaceholder()})
	return Section{ID: SectionListing, Title: "Movimientos", Blocks: blocks}
}
