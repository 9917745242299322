package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"colectas/internal/aggregate"
	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/log"
	"colectas/internal/report"
	"colectas/internal/services"
	"colectas/internal/session"
)

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBadBody):
		BadRequestError(err.Error()).Write(w)
	case core.IsValidationError(err):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound), errors.Is(err, report.ErrUnknownEntity):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, session.ErrMissingToken), errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrNoSession):
		UnauthorizedError("unauthorized").Write(w)
	case errors.Is(err, session.ErrForbidden):
		ForbiddenError().Write(w)
	case errors.Is(err, services.ErrSheetsDisabled):
		ErrorResponse(http.StatusServiceUnavailable, err.Error()).Write(w)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		w.WriteHeader(499)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError().Write(w)
	}
}

// parseBody decodes the request body with parse and reports the first
// decoding or conversion error.
func parseBody[T any](w http.ResponseWriter, r *http.Request, parse func(*RequestBodyParser) T) (T, error) {
	var zero T
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return zero, err
	}
	v := parse(p)
	if err := p.Err(); err != nil {
		return zero, err
	}
	return v, nil
}

// resource wires the CRUD routes of one record type. L is the item type
// returned by list and get, T the one accepted by create and update.
type resource[T, L any] struct {
	path   string
	list   func(context.Context, session.Session, filter.Criteria) ([]L, error)
	get    func(context.Context, session.Session, string) (L, error)
	create func(context.Context, session.Session, T) (T, error)
	update func(context.Context, session.Session, string, T) (T, error)
	remove func(context.Context, session.Session, string) error
	parse  func(*RequestBodyParser) T
	id     func(T) string
	view   func(T) any
	item   func(L) any
}

func (res resource[T, L]) register(mux *http.ServeMux, s *Server) {
	mux.Handle("GET "+res.path, s.api(res.handleList(s)))
	mux.Handle("POST "+res.path, s.api(res.handleCreate(s)))
	mux.Handle("GET "+res.path+"/{id}", s.api(res.handleGet(s)))
	mux.Handle("PUT "+res.path+"/{id}", s.api(res.handleUpdate(s)))
	mux.Handle("DELETE "+res.path+"/{id}", s.api(res.handleDelete(s)))
}

func (res resource[T, L]) handleList(s *Server) apiHandler {
	return func(w http.ResponseWriter, r *http.Request, sess session.Session) {
		items, err := res.list(r.Context(), sess, filter.ParseCriteria(r.URL.Query()))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewResponse().JSON(listOf(items, res.item)).Write(w)
	}
}

func (res resource[T, L]) handleGet(s *Server) apiHandler {
	return func(w http.ResponseWriter, r *http.Request, sess session.Session) {
		item, err := res.get(r.Context(), sess, r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewResponse().JSON(res.item(item)).Write(w)
	}
}

func (res resource[T, L]) handleCreate(s *Server) apiHandler {
	return func(w http.ResponseWriter, r *http.Request, sess session.Session) {
		in, err := parseBody(w, r, res.parse)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out, err := res.create(r.Context(), sess, in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewResponse().Status(http.StatusCreated).
			Header("Location", res.path+"/"+res.id(out)).
			JSON(res.view(out)).Write(w)
	}
}

func (res resource[T, L]) handleUpdate(s *Server) apiHandler {
	return func(w http.ResponseWriter, r *http.Request, sess session.Session) {
		in, err := parseBody(w, r, res.parse)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out, err := res.update(r.Context(), sess, r.PathValue("id"), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		NewResponse().JSON(res.view(out)).Write(w)
	}
}

func (res resource[T, L]) handleDelete(s *Server) apiHandler {
	return func(w http.ResponseWriter, r *http.Request, sess session.Session) {
		if err := res.remove(r.Context(), sess, r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		NewResponse().Status(http.StatusNoContent).Write(w)
	}
}

func asAny[T, V any](view func(T) V) func(T) any {
	return func(v T) any { return view(v) }
}

func colectasResource(c *services.ClubService) resource[core.Colecta, aggregate.ColectaResumen] {
	return resource[core.Colecta, aggregate.ColectaResumen]{
		path:   "/api/colectas",
		list:   c.ListColectas,
		get:    c.ColectaResumen,
		create: c.CreateColecta,
		update: c.UpdateColecta,
		remove: c.DeleteColecta,
		parse:  parseColecta,
		id:     func(v core.Colecta) string { return v.ID },
		view:   asAny(viewColecta),
		item:   asAny(viewColectaResumen),
	}
}

func aportesResource(c *services.ClubService) resource[core.Aporte, core.Aporte] {
	return resource[core.Aporte, core.Aporte]{
		path:   "/api/aportes",
		list:   c.ListAportes,
		get:    c.GetAporte,
		create: c.CreateAporte,
		update: c.UpdateAporte,
		remove: c.DeleteAporte,
		parse:  parseAporte,
		id:     func(v core.Aporte) string { return v.ID },
		view:   asAny(viewAporte),
		item:   asAny(viewAporte),
	}
}

func gastosResource(c *services.ClubService) resource[core.Gasto, core.Gasto] {
	return resource[core.Gasto, core.Gasto]{
		path:   "/api/gastos",
		list:   c.ListGastos,
		get:    c.GetGasto,
		create: c.CreateGasto,
		update: c.UpdateGasto,
		remove: c.DeleteGasto,
		parse:  parseGasto,
		id:     func(v core.Gasto) string { return v.ID },
		view:   asAny(viewGasto),
		item:   asAny(viewGasto),
	}
}

func ingresosResource(c *services.ClubService) resource[core.Ingreso, core.Ingreso] {
	return resource[core.Ingreso, core.Ingreso]{
		path:   "/api/ingresos",
		list:   c.ListIngresos,
		get:    c.GetIngreso,
		create: c.CreateIngreso,
		update: c.UpdateIngreso,
		remove: c.DeleteIngreso,
		parse:  parseIngreso,
		id:     func(v core.Ingreso) string { return v.ID },
		view:   asAny(viewIngreso),
		item:   asAny(viewIngreso),
	}
}

func deudasResource(c *services.ClubService) resource[core.Deuda, core.Deuda] {
	return resource[core.Deuda, core.Deuda]{
		path:   "/api/deudas",
		list:   c.ListDeudas,
		get:    c.GetDeuda,
		create: c.CreateDeuda,
		update: c.UpdateDeuda,
		remove: c.DeleteDeuda,
		parse:  parseDeuda,
		id:     func(v core.Deuda) string { return v.ID },
		view:   asAny(viewDeuda),
		item:   asAny(viewDeuda),
	}
}

func miembrosResource(c *services.ClubService) resource[core.Miembro, core.Miembro] {
	return resource[core.Miembro, core.Miembro]{
		path:   "/api/miembros",
		list:   c.ListMiembros,
		get:    c.GetMiembro,
		create: c.CreateMiembro,
		update: c.UpdateMiembro,
		remove: c.DeleteMiembro,
		parse:  parseMiembro,
		id:     func(v core.Miembro) string { return v.ID },
		view:   asAny(viewMiembro),
		item:   asAny(viewMiembro),
	}
}

// usuariosResource ignores list filters; the account list is short.
func usuariosResource(c *services.ClubService) resource[core.Usuario, core.Usuario] {
	return resource[core.Usuario, core.Usuario]{
		path: "/api/usuarios",
		list: func(ctx context.Context, sess session.Session, _ filter.Criteria) ([]core.Usuario, error) {
			return c.ListUsuarios(ctx, sess)
		},
		get:    c.GetUsuario,
		create: c.CreateUsuario,
		update: c.UpdateUsuario,
		remove: c.DeleteUsuario,
		parse:  parseUsuario,
		id:     func(v core.Usuario) string { return v.ID },
		view:   asAny(viewUsuario),
		item:   asAny(viewUsuario),
	}
}

func (s *Server) handleColectaResumen(w http.ResponseWriter, r *http.Request, sess session.Session) {
	res, err := s.clubs.ColectaResumen(r.Context(), sess, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(viewColectaResumen(res)).Write(w)
}

// handlePublicColecta serves the unauthenticated progress page data of one
// campaign.
func (s *Server) handlePublicColecta(w http.ResponseWriter, r *http.Request) {
	res, err := s.clubs.PublicColecta(r.Context(), r.PathValue("club"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(viewPublicColecta(res)).Write(w)
}

func (s *Server) handleRegistrarPago(w http.ResponseWriter, r *http.Request, sess session.Session) {
	in, err := parseBody(w, r, parsePago)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, p, err := s.clubs.RegistrarPago(r.Context(), sess, r.PathValue("id"), in.Monto, in.Notas)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).
		JSON(pagoResultView{Deuda: viewDeuda(d), Pago: viewPago(p)}).Write(w)
}

func (s *Server) handleListPagos(w http.ResponseWriter, r *http.Request, sess session.Session) {
	pagos, err := s.clubs.ListPagos(r.Context(), sess, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(listOf(pagos, viewPago)).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess session.Session) {
	res, err := s.clubs.Dashboard(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(viewDashboard(res)).Write(w)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request, sess session.Session) {
	limit := min(queryInt(r, "limit", 50), 500)
	entries, err := s.clubs.ListAudit(r.Context(), sess, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(listOf(entries, viewAudit)).Write(w)
}

// handleExportCSV serves /api/export/{entity}.csv with the list filters
// applied.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, sess session.Session) {
	entity, ok := strings.CutSuffix(r.PathValue("file"), ".csv")
	if !ok || entity == "" {
		NotFoundError("export must name a .csv file").Write(w)
		return
	}
	var buf bytes.Buffer
	name, err := s.reports.CSV(r.Context(), sess, entity, filter.ParseCriteria(r.URL.Query()), &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Attachment(name).Body("text/csv; charset=utf-8", buf.Bytes()).Write(w)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request, sess session.Session) {
	rng, err := s.reports.ExportSheets(r.Context(), sess, r.PathValue("entity"), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(map[string]string{"range": rng}).Write(w)
}

// handleReadSheets returns a previously exported tab; ?anio= selects the
// year, the current one by default.
func (s *Server) handleReadSheets(w http.ResponseWriter, r *http.Request, sess session.Session) {
	t, err := s.reports.ReadSheets(r.Context(), sess, r.PathValue("entity"), queryInt(r, "anio", 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(viewTable(t)).Write(w)
}

// handleReportPDF renders the club report. The period defaults to the
// current month.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request, sess session.Session) {
	period := filter.PeriodMonth
	if v := strings.TrimSpace(r.URL.Query().Get("periodo")); v != "" {
		period = filter.ParsePeriod(v)
	}
	var buf bytes.Buffer
	name, err := s.reports.PDF(r.Context(), sess, period, &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().Attachment(name).Body("application/pdf", buf.Bytes()).Write(w)
}
