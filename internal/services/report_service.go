package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/records"
	"colectas/internal/report"
	"colectas/internal/session"
)

var ErrSheetsDisabled = errors.New("google sheets export is not configured")

// SheetsExporter pushes a flat table to the club's tab for entity and
// returns the updated range. ReadTable reads a previously exported tab back.
// Tabs of different clubs never overlap.
type SheetsExporter interface {
	ExportTable(ctx context.Context, clubID, entity string, t report.Table) (string, error)
	ReadTable(ctx context.Context, clubID, entity string, year int) (report.Table, error)
}

// LedgerSource provides complete club ledgers for exports.
type LedgerSource interface {
	Ledger(ctx context.Context, clubID string) (*core.Ledger, error)
}

type ReportConfig struct {
	LowBalance   core.Money
	Location     *time.Location
	MaxListItems int

	Sheets  SheetsExporter
	Metrics *metrics.Metrics
	Logger  *log.Logger
	Now     func() time.Time
}

// ReportService produces CSV exports, the PDF club report and Sheets
// exports.
type ReportService struct {
	store   records.Store
	ledgers LedgerSource
	cfg     ReportConfig
	logger  *log.Logger
}

func NewReportService(store records.Store, ledgers LedgerSource, cfg ReportConfig) *ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportService{
		store:   store,
		ledgers: ledgers,
		cfg:     cfg,
		logger:  logger.WithComponent(log.ComponentReport),
	}
}

func (s *ReportService) now() time.Time { return s.cfg.Now().In(s.cfg.Location) }

// LoadReportData fetches every report source concurrently. A failing
// source is recorded in Failed and left empty; it never fails the report.
func (s *ReportService) LoadReportData(ctx context.Context, clubID string, period filter.Period) report.ReportData {
	data := report.ReportData{
		ClubNombre:   clubID,
		Ledger:       &core.Ledger{ClubID: clubID},
		Failed:       make(map[report.Source]error),
		Period:       period,
		LowBalance:   s.cfg.LowBalance,
		Location:     s.cfg.Location,
		MaxListItems: s.cfg.MaxListItems,
	}
	if club, err := s.store.GetClub(ctx, clubID); err == nil {
		data.ClubNombre = club.Nombre
	}

	var mu sync.Mutex
	fail := func(src report.Source, err error) {
		mu.Lock()
		data.Failed[src] = err
		mu.Unlock()
		s.logger.WarnContext(ctx, "Report source failed to load",
			log.FieldClubID, clubID,
			log.FieldSource, string(src),
			log.FieldError, err)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ReportSectionErrors.WithLabelValues(string(src)).Inc()
		}
	}
	l := data.Ledger

	var g errgroup.Group
	load := func(src report.Source, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				fail(src, err)
			}
			return nil
		})
	}
	load(report.SourceColectas, func() (err error) { l.Colectas, err = s.store.ListColectas(ctx, clubID); return })
	load(report.SourceAportes, func() (err error) { l.Aportes, err = s.store.ListAportes(ctx, clubID); return })
	load(report.SourceGastos, func() (err error) { l.Gastos, err = s.store.ListGastos(ctx, clubID); return })
	load(report.SourceIngresos, func() (err error) { l.Ingresos, err = s.store.ListIngresos(ctx, clubID); return })
	load(report.SourceDeudas, func() (err error) { l.Deudas, err = s.store.ListDeudas(ctx, clubID); return })
	load(report.SourceMiembros, func() (err error) { l.Miembros, err = s.store.ListMiembros(ctx, clubID); return })
	_ = g.Wait()
	return data
}

// PDF writes the paginated club report and returns its file name.
func (s *ReportService) PDF(ctx context.Context, sess session.Session, period filter.Period, w io.Writer) (string, error) {
	now := s.now()
	data := s.LoadReportData(ctx, sess.ClubID, period)
	doc := report.Compose(data, now)
	if err := report.RenderPDF(w, doc, report.A4); err != nil {
		return "", err
	}
	s.generated("pdf", sess.ClubID, len(data.Failed))
	return report.FileName("informe", now, "pdf"), nil
}

// CSV writes the filtered table of entity and returns its file name.
func (s *ReportService) CSV(ctx context.Context, sess session.Session, entity string, c filter.Criteria, w io.Writer) (string, error) {
	t, err := s.table(ctx, sess.ClubID, entity, c)
	if err != nil {
		return "", err
	}
	if err := report.WriteCSV(w, t); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	s.generated("csv", sess.ClubID, 0)
	return report.FileName(entity, s.now(), "csv"), nil
}

// ExportSheets pushes the filtered table of entity to the configured
// spreadsheet and returns the updated range.
func (s *ReportService) ExportSheets(ctx context.Context, sess session.Session, entity string, c filter.Criteria) (string, error) {
	if s.cfg.Sheets == nil {
		return "", ErrSheetsDisabled
	}
	t, err := s.table(ctx, sess.ClubID, entity, c)
	if err != nil {
		return "", err
	}
	rng, err := s.cfg.Sheets.ExportTable(ctx, sess.ClubID, entity, t)
	if err != nil {
		return "", fmt.Errorf("export %s to sheets: %w", entity, err)
	}
	s.generated("sheets", sess.ClubID, 0)
	return rng, nil
}

// ReadSheets returns the tab exported for entity in year, or the current
// year when year is zero.
func (s *ReportService) ReadSheets(ctx context.Context, sess session.Session, entity string, year int) (report.Table, error) {
	if s.cfg.Sheets == nil {
		return report.Table{}, ErrSheetsDisabled
	}
	if !slices.Contains(report.Entities, entity) {
		return report.Table{}, report.ErrUnknownEntity
	}
	if year == 0 {
		year = s.now().Year()
	}
	t, err := s.cfg.Sheets.ReadTable(ctx, sess.ClubID, entity, year)
	if err != nil {
		return report.Table{}, fmt.Errorf("read %s from sheets: %w", entity, err)
	}
	s.logger.InfoContext(ctx, "Read exported table",
		log.FieldClubID, sess.ClubID,
		log.FieldEntity, entity,
		log.FieldRows, t.Len())
	return t, nil
}

func (s *ReportService) table(ctx context.Context, clubID, entity string, c filter.Criteria) (report.Table, error) {
	l, err := s.ledgers.Ledger(ctx, clubID)
	if err != nil {
		return report.Table{}, err
	}
	return report.EntityTable(entity, l, c, s.now())
}

func (s *ReportService) generated(format, clubID string, failed int) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ReportsGenerated.WithLabelValues(format).Inc()
	}
	s.logger.Info("Report generated",
		log.FieldClubID, clubID,
		log.FieldFormat, format,
		"failed_sources", failed)
}
