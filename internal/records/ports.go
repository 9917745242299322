// Package records declares the persistence ports of the club ledger.
// Every method is scoped by club; a record of another club is reported as
// core.ErrNotFound.
package records

import (
	"context"

	"colectas/internal/core"
)

type (
	ClubStore interface {
		GetClub(ctx context.Context, id string) (core.Club, error)
		SaveClub(ctx context.Context, c core.Club) error
	}

	// ColectaStore deletes a campaign together with its contributions and
	// expenses.
	ColectaStore interface {
		ListColectas(ctx context.Context, clubID string) ([]core.Colecta, error)
		GetColecta(ctx context.Context, clubID, id string) (core.Colecta, error)
		CreateColecta(ctx context.Context, c core.Colecta) error
		UpdateColecta(ctx context.Context, c core.Colecta) error
		DeleteColecta(ctx context.Context, clubID, id string) error
	}

	AporteStore interface {
		ListAportes(ctx context.Context, clubID string) ([]core.Aporte, error)
		GetAporte(ctx context.Context, clubID, id string) (core.Aporte, error)
		CreateAporte(ctx context.Context, a core.Aporte) error
		UpdateAporte(ctx context.Context, a core.Aporte) error
		DeleteAporte(ctx context.Context, clubID, id string) error
	}

	GastoStore interface {
		ListGastos(ctx context.Context, clubID string) ([]core.Gasto, error)
		GetGasto(ctx context.Context, clubID, id string) (core.Gasto, error)
		CreateGasto(ctx context.Context, g core.Gasto) error
		UpdateGasto(ctx context.Context, g core.Gasto) error
		DeleteGasto(ctx context.Context, clubID, id string) error
	}

	IngresoStore interface {
		ListIngresos(ctx context.Context, clubID string) ([]core.Ingreso, error)
		GetIngreso(ctx context.Context, clubID, id string) (core.Ingreso, error)
		CreateIngreso(ctx context.Context, i core.Ingreso) error
		UpdateIngreso(ctx context.Context, i core.Ingreso) error
		DeleteIngreso(ctx context.Context, clubID, id string) error
	}

	// DeudaStore persists debts and their payment history. RecordPago stores
	// the updated debt and the payment atomically.
	DeudaStore interface {
		ListDeudas(ctx context.Context, clubID string) ([]core.Deuda, error)
		GetDeuda(ctx context.Context, clubID, id string) (core.Deuda, error)
		CreateDeuda(ctx context.Context, d core.Deuda) error
		UpdateDeuda(ctx context.Context, d core.Deuda) error
		DeleteDeuda(ctx context.Context, clubID, id string) error
		RecordPago(ctx context.Context, d core.Deuda, p core.PagoDeuda) error
		ListPagos(ctx context.Context, clubID, deudaID string) ([]core.PagoDeuda, error)
	}

	// MiembroStore deletes members without touching the records that
	// reference them; those keep their name snapshots.
	MiembroStore interface {
		ListMiembros(ctx context.Context, clubID string) ([]core.Miembro, error)
		GetMiembro(ctx context.Context, clubID, id string) (core.Miembro, error)
		CreateMiembro(ctx context.Context, m core.Miembro) error
		UpdateMiembro(ctx context.Context, m core.Miembro) error
		DeleteMiembro(ctx context.Context, clubID, id string) error
	}

	UsuarioStore interface {
		ListUsuarios(ctx context.Context, clubID string) ([]core.Usuario, error)
		GetUsuario(ctx context.Context, clubID, id string) (core.Usuario, error)
		CreateUsuario(ctx context.Context, u core.Usuario) error
		UpdateUsuario(ctx context.Context, u core.Usuario) error
		DeleteUsuario(ctx context.Context, clubID, id string) error
	}

	// AuditStore is append-only; ListAudit returns newest first.
	AuditStore interface {
		AppendAudit(ctx context.Context, e core.AuditEntry) error
		ListAudit(ctx context.Context, clubID string, limit int) ([]core.AuditEntry, error)
	}

	// Store is everything a backend provides.
	Store interface {
		ClubStore
		ColectaStore
		AporteStore
		GastoStore
		IngresoStore
		DeudaStore
		MiembroStore
		UsuarioStore
		AuditStore
	}
)
