// Package storage is the SQLite backend of the club ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"colectas/internal/core"
	"colectas/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements records.Store on a single SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, queries: New(db), logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, core.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *SQLiteRepository) GetClub(ctx context.Context, id string) (core.Club, error) {
	c, err := r.queries.GetClub(ctx, id)
	return c, wrap("get club", err)
}

func (r *SQLiteRepository) SaveClub(ctx context.Context, c core.Club) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return wrap("save club", r.queries.UpsertClub(ctx, c))
}

func (r *SQLiteRepository) ListColectas(ctx context.Context, clubID string) ([]core.Colecta, error) {
	out, err := r.queries.ListColectas(ctx, clubID)
	return out, wrap("list colectas", err)
}

func (r *SQLiteRepository) GetColecta(ctx context.Context, clubID, id string) (core.Colecta, error) {
	c, err := r.queries.GetColecta(ctx, clubID, id)
	return c, wrap("get colecta", err)
}

func (r *SQLiteRepository) CreateColecta(ctx context.Context, c core.Colecta) error {
	return wrap("create colecta", r.queries.CreateColecta(ctx, c))
}

func (r *SQLiteRepository) UpdateColecta(ctx context.Context, c core.Colecta) error {
	return wrap("update colecta", r.queries.UpdateColecta(ctx, c))
}

// DeleteColecta removes the campaign with its contributions and expenses.
func (r *SQLiteRepository) DeleteColecta(ctx context.Context, clubID, id string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteColecta(ctx, clubID, id); err != nil {
			return err
		}
		if err := q.DeleteAportesOfColecta(ctx, clubID, id); err != nil {
			return err
		}
		return q.DeleteGastosOfColecta(ctx, clubID, id)
	})
	if err == nil {
		r.logger.Info("Colecta deleted with linked records", log.FieldClubID, clubID, log.FieldRecordID, id)
	}
	return wrap("delete colecta", err)
}

func (r *SQLiteRepository) ListAportes(ctx context.Context, clubID string) ([]core.Aporte, error) {
	out, err := r.queries.ListAportes(ctx, clubID)
	return out, wrap("list aportes", err)
}

func (r *SQLiteRepository) GetAporte(ctx context.Context, clubID, id string) (core.Aporte, error) {
	a, err := r.queries.GetAporte(ctx, clubID, id)
	return a, wrap("get aporte", err)
}

func (r *SQLiteRepository) CreateAporte(ctx context.Context, a core.Aporte) error {
	return wrap("create aporte", r.queries.CreateAporte(ctx, a))
}

func (r *SQLiteRepository) UpdateAporte(ctx context.Context, a core.Aporte) error {
	return wrap("update aporte", r.queries.UpdateAporte(ctx, a))
}

func (r *SQLiteRepository) DeleteAporte(ctx context.Context, clubID, id string) error {
	return wrap("delete aporte", r.queries.DeleteAporte(ctx, clubID, id))
}

func (r *SQLiteRepository) ListGastos(ctx context.Context, clubID string) ([]core.Gasto, error) {
	out, err := r.queries.ListGastos(ctx, clubID)
	return out, wrap("list gastos", err)
}

func (r *SQLiteRepository) GetGasto(ctx context.Context, clubID, id string) (core.Gasto, error) {
	g, err := r.queries.GetGasto(ctx, clubID, id)
	return g, wrap("get gasto", err)
}

func (r *SQLiteRepository) CreateGasto(ctx context.Context, g core.Gasto) error {
	return wrap("create gasto", r.queries.CreateGasto(ctx, g))
}

func (r *SQLiteRepository) UpdateGasto(ctx context.Context, g core.Gasto) error {
	return wrap("update gasto", r.queries.UpdateGasto(ctx, g))
}

func (r *SQLiteRepository) DeleteGasto(ctx context.Context, clubID, id string) error {
	return wrap("delete gasto", r.queries.DeleteGasto(ctx, clubID, id))
}

func (r *SQLiteRepository) ListIngresos(ctx context.Context, clubID string) ([]core.Ingreso, error) {
	out, err := r.queries.ListIngresos(ctx, clubID)
	return out, wrap("list ingresos", err)
}

func (r *SQLiteRepository) GetIngreso(ctx context.Context, clubID, id string) (core.Ingreso, error) {
	i, err := r.queries.GetIngreso(ctx, clubID, id)
	return i, wrap("get ingreso", err)
}

func (r *SQLiteRepository) CreateIngreso(ctx context.Context, i core.Ingreso) error {
	return wrap("create ingreso", r.queries.CreateIngreso(ctx, i))
}

func (r *SQLiteRepository) UpdateIngreso(ctx context.Context, i core.Ingreso) error {
	return wrap("update ingreso", r.queries.UpdateIngreso(ctx, i))
}

func (r *SQLiteRepository) DeleteIngreso(ctx context.Context, clubID, id string) error {
	return wrap("delete ingreso", r.queries.DeleteIngreso(ctx, clubID, id))
}

func (r *SQLiteRepository) ListDeudas(ctx context.Context, clubID string) ([]core.Deuda, error) {
	out, err := r.queries.ListDeudas(ctx, clubID)
	return out, wrap("list deudas", err)
}

func (r *SQLiteRepository) GetDeuda(ctx context.Context, clubID, id string) (core.Deuda, error) {
	d, err := r.queries.GetDeuda(ctx, clubID, id)
	return d, wrap("get deuda", err)
}

func (r *SQLiteRepository) CreateDeuda(ctx context.Context, d core.Deuda) error {
	return wrap("create deuda", r.queries.CreateDeuda(ctx, d))
}

func (r *SQLiteRepository) UpdateDeuda(ctx context.Context, d core.Deuda) error {
	return wrap("update deuda", r.queries.UpdateDeuda(ctx, d))
}

func (r *SQLiteRepository) DeleteDeuda(ctx context.Context, clubID, id string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeletePagosOfDeuda(ctx, clubID, id); err != nil {
			return err
		}
		return q.DeleteDeuda(ctx, clubID, id)
	})
	return wrap("delete deuda", err)
}

// RecordPago stores the updated debt and its payment in one transaction.
func (r *SQLiteRepository) RecordPago(ctx context.Context, d core.Deuda, p core.PagoDeuda) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.UpdateDeuda(ctx, d); err != nil {
			return err
		}
		return q.CreatePago(ctx, p)
	})
	if err == nil {
		r.logger.Info("Pago recorded",
			log.FieldClubID, d.ClubID,
			log.FieldRecordID, d.ID,
			log.FieldAmount, p.Monto.Units,
			log.FieldEstado, string(d.Estado))
	}
	return wrap("record pago", err)
}

func (r *SQLiteRepository) ListPagos(ctx context.Context, clubID, deudaID string) ([]core.PagoDeuda, error) {
	out, err := r.queries.ListPagos(ctx, clubID, deudaID)
	return out, wrap("list pagos", err)
}

func (r *SQLiteRepository) ListMiembros(ctx context.Context, clubID string) ([]core.Miembro, error) {
	out, err := r.queries.ListMiembros(ctx, clubID)
	return out, wrap("list miembros", err)
}

func (r *SQLiteRepository) GetMiembro(ctx context.Context, clubID, id string) (core.Miembro, error) {
	m, err := r.queries.GetMiembro(ctx, clubID, id)
	return m, wrap("get miembro", err)
}

func (r *SQLiteRepository) CreateMiembro(ctx context.Context, m core.Miembro) error {
	return wrap("create miembro", r.queries.CreateMiembro(ctx, m))
}

func (r *SQLiteRepository) UpdateMiembro(ctx context.Context, m core.Miembro) error {
	return wrap("update miembro", r.queries.UpdateMiembro(ctx, m))
}

func (r *SQLiteRepository) DeleteMiembro(ctx context.Context, clubID, id string) error {
	return wrap("delete miembro", r.queries.DeleteMiembro(ctx, clubID, id))
}

func (r *SQLiteRepository) ListUsuarios(ctx context.Context, clubID string) ([]core.Usuario, error) {
	out, err := r.queries.ListUsuarios(ctx, clubID)
	return out, wrap("list usuarios", err)
}

func (r *SQLiteRepository) GetUsuario(ctx context.Context, clubID, id string) (core.Usuario, error) {
	u, err := r.queries.GetUsuario(ctx, clubID, id)
	return u, wrap("get usuario", err)
}

func (r *SQLiteRepository) CreateUsuario(ctx context.Context, u core.Usuario) error {
	return wrap("create usuario", r.queries.CreateUsuario(ctx, u))
}

func (r *SQLiteRepository) UpdateUsuario(ctx context.Context, u core.Usuario) error {
	return wrap("update usuario", r.queries.UpdateUsuario(ctx, u))
}

func (r *SQLiteRepository) DeleteUsuario(ctx context.Context, clubID, id string) error {
	return wrap("delete usuario", r.queries.DeleteUsuario(ctx, clubID, id))
}

func (r *SQLiteRepository) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	return wrap("append audit", r.queries.AppendAudit(ctx, e))
}

func (r *SQLiteRepository) ListAudit(ctx context.Context, clubID string, limit int) ([]core.AuditEntry, error) {
	out, err := r.queries.ListAudit(ctx, clubID, limit)
	return out, wrap("list audit", err)
}
