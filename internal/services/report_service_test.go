package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/records/memory"
	"colectas/internal/report"
	"colectas/internal/session"
)

type brokenGastos struct {
	*memory.Store
}

func (brokenGastos) ListGastos(context.Context, string) ([]core.Gasto, error) {
	return nil, errors.New("gastos table locked")
}

// fakeSheets keeps one tab per club and entity, like the Google exporter.
type fakeSheets struct {
	entity string
	year   int
	table  report.Table
	tabs   map[string]report.Table
}

func (f *fakeSheets) ReadTable(_ context.Context, clubID, entity string, year int) (report.Table, error) {
	f.year = year
	t, ok := f.tabs[clubID+"/"+entity]
	if !ok {
		return report.Table{}, errors.New("no such tab")
	}
	return t, nil
}

func (f *fakeSheets) ExportTable(_ context.Context, clubID, entity string, t report.Table) (string, error) {
	if f.tabs == nil {
		f.tabs = map[string]report.Table{}
	}
	f.entity, f.table = entity, t
	f.tabs[clubID+"/"+entity] = t
	return "'2025 " + clubID + " Aportes'!A1:H3", nil
}

func seedReport(t *testing.T, s *ClubService) {
	t.Helper()
	ctx := context.Background()
	col, err := s.CreateColecta(ctx, tesorero, core.Colecta{Nombre: "Torneo", Objetivo: core.Money{Units: 10_000}})
	if err != nil {
		t.Fatalf("CreateColecta: %v", err)
	}
	for _, a := range []core.Aporte{
		{ColectaID: col.ID, MiembroNombre: "Ana", Cantidad: core.Money{Units: 4000}},
		{ColectaID: col.ID, MiembroNombre: "Luis, \"el flaco\"", Cantidad: core.Money{Units: 1500}},
	} {
		if _, err := s.CreateAporte(ctx, tesorero, a); err != nil {
			t.Fatalf("CreateAporte: %v", err)
		}
	}
	if _, err := s.CreateGasto(ctx, tesorero, core.Gasto{Concepto: "Cancha", Categoria: "cancha", QuienPagoNombre: "Ana", Cantidad: core.Money{Units: 800}}); err != nil {
		t.Fatalf("CreateGasto: %v", err)
	}
}

func TestReportDataDegradesPerSource(t *testing.T) {
	s, store, m := newTestService(t)
	seedReport(t, s)

	rs := NewReportService(brokenGastos{store}, s, ReportConfig{Metrics: m, Now: s.now})
	data := rs.LoadReportData(context.Background(), "club", filter.PeriodAll)

	if data.ClubNombre != "Club Atlético" {
		t.Errorf("ClubNombre = %q", data.ClubNombre)
	}
	if _, ok := data.Failed[report.SourceGastos]; !ok || len(data.Failed) != 1 {
		t.Errorf("Failed = %v, want only gastos", data.Failed)
	}
	if len(data.Ledger.Aportes) != 2 || len(data.Ledger.Colectas) != 1 {
		t.Errorf("ledger = %d aportes, %d colectas", len(data.Ledger.Aportes), len(data.Ledger.Colectas))
	}
	if got := testutil.ToFloat64(m.ReportSectionErrors.WithLabelValues("gastos")); got != 1 {
		t.Errorf("section errors = %v, want 1", got)
	}
}

func TestReportPDF(t *testing.T) {
	s, store, m := newTestService(t)
	seedReport(t, s)
	rs := NewReportService(brokenGastos{store}, s, ReportConfig{Metrics: m, Now: s.now})

	var buf bytes.Buffer
	name, err := rs.PDF(context.Background(), tesorero, filter.PeriodMonth, &buf)
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if name != "informe_2025-04-15.pdf" {
		t.Errorf("name = %q", name)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF")
	}
	if got := testutil.ToFloat64(m.ReportsGenerated.WithLabelValues("pdf")); got != 1 {
		t.Errorf("reports generated = %v", got)
	}
}

func TestReportCSVRoundTrip(t *testing.T) {
	s, store, _ := newTestService(t)
	seedReport(t, s)
	rs := NewReportService(store, s, ReportConfig{Now: s.now})

	var buf bytes.Buffer
	name, err := rs.CSV(context.Background(), tesorero, report.EntityAportes, filter.Criteria{Query: "flaco"}, &buf)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if name != "aportes_2025-04-15.csv" {
		t.Errorf("name = %q", name)
	}
	tbl, err := report.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tbl.Rows) != 1 || !strings.Contains(strings.Join(tbl.Rows[0], "|"), `Luis, "el flaco"`) {
		t.Errorf("rows = %q", tbl.Rows)
	}

	if _, err := rs.CSV(context.Background(), tesorero, "socios", filter.Criteria{}, &buf); !errors.Is(err, report.ErrUnknownEntity) {
		t.Errorf("unknown entity: %v", err)
	}
}

func TestExportSheets(t *testing.T) {
	s, store, _ := newTestService(t)
	seedReport(t, s)

	rs := NewReportService(store, s, ReportConfig{Now: s.now})
	if _, err := rs.ExportSheets(context.Background(), tesorero, report.EntityAportes, filter.Criteria{}); !errors.Is(err, ErrSheetsDisabled) {
		t.Errorf("without exporter: %v", err)
	}

	sheets := &fakeSheets{}
	rs = NewReportService(store, s, ReportConfig{Now: s.now, Sheets: sheets})
	rng, err := rs.ExportSheets(context.Background(), tesorero, report.EntityAportes, filter.Criteria{})
	if err != nil {
		t.Fatalf("ExportSheets: %v", err)
	}
	if rng == "" || sheets.entity != report.EntityAportes || len(sheets.table.Rows) != 2 {
		t.Errorf("exported %q %q with %d rows", rng, sheets.entity, len(sheets.table.Rows))
	}
}

func TestReadSheets(t *testing.T) {
	s, store, _ := newTestService(t)
	seedReport(t, s)
	ctx := context.Background()

	rs := NewReportService(store, s, ReportConfig{Now: s.now})
	if _, err := rs.ReadSheets(ctx, tesorero, report.EntityAportes, 0); !errors.Is(err, ErrSheetsDisabled) {
		t.Errorf("without exporter: %v", err)
	}

	sheets := &fakeSheets{}
	rs = NewReportService(store, s, ReportConfig{Now: s.now, Sheets: sheets})
	if _, err := rs.ReadSheets(ctx, tesorero, "sueldos", 0); !errors.Is(err, report.ErrUnknownEntity) {
		t.Errorf("unknown entity: %v", err)
	}
	if _, err := rs.ExportSheets(ctx, tesorero, report.EntityAportes, filter.Criteria{}); err != nil {
		t.Fatalf("ExportSheets: %v", err)
	}
	got, err := rs.ReadSheets(ctx, tesorero, report.EntityAportes, 0)
	if err != nil {
		t.Fatalf("ReadSheets: %v", err)
	}
	if sheets.year != 2025 {
		t.Errorf("year = %d, want current year 2025", sheets.year)
	}
	if got.Len() != 2 {
		t.Errorf("read back %d rows, want 2", got.Len())
	}
}

func TestSheetsTabsAreScopedPerClub(t *testing.T) {
	s, store, _ := newTestService(t)
	seedReport(t, s)
	ctx := context.Background()

	sheets := &fakeSheets{}
	rs := NewReportService(store, s, ReportConfig{Now: s.now, Sheets: sheets})
	if _, err := rs.ExportSheets(ctx, tesorero, report.EntityAportes, filter.Criteria{}); err != nil {
		t.Fatalf("ExportSheets: %v", err)
	}

	otro := session.Session{UserID: "u-otro", ClubID: "otro", Rol: core.RolTesorero}
	got, err := rs.ReadSheets(ctx, otro, report.EntityAportes, 2025)
	if err == nil {
		t.Fatalf("club %q read %d rows exported by %q", otro.ClubID, got.Len(), tesorero.ClubID)
	}

	own, err := rs.ReadSheets(ctx, tesorero, report.EntityAportes, 2025)
	if err != nil {
		t.Fatalf("ReadSheets: %v", err)
	}
	if own.Len() != 2 {
		t.Errorf("own tab has %d rows, want 2", own.Len())
	}
}
