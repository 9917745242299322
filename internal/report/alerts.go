package report

import (
	"colectas/internal/aggregate"
	"colectas/internal/core"
)

type AlertLevel string

const (
	AlertWarning AlertLevel = "warning"
	AlertInfo    AlertLevel = "info"
)

// DefaultLowBalance is the balance under which a low-balance warning is
// raised when no threshold is configured.
var DefaultLowBalance = core.Money{Units: 100_000}

type Alert struct {
	Level   AlertLevel
	Title   string
	Message string
}

// AlertInput carries the figures alerts are derived from.
type AlertInput struct {
	Resumen      aggregate.Resumen
	PeriodResult core.Money
	PeriodLabel  string
	Threshold    core.Money
	// Complete is false when a money-carrying source failed to load; the
	// balance based alerts are then skipped.
	Complete bool
	// HasColectas is false when campaigns failed to load.
	HasColectas bool
}

// Alerts derives the warnings and notices of a report. Nothing is stored;
// the result depends only on in.
func Alerts(in AlertInput) []Alert {
	threshold := in.Threshold
	if threshold.Units <= 0 {
		threshold = DefaultLowBalance
	}
	r := in.Resumen

	var out []Alert
	if in.Complete && r.Balance.Units < threshold.Units {
		out = append(out, Alert{
			Level:   AlertWarning,
			Title:   "Saldo bajo",
			Message: "El saldo del club es " + Full(r.Balance) + ", por debajo de " + Full(threshold) + ".",
		})
	}
	if in.Complete && in.PeriodResult.Units < 0 {
		out = append(out, Alert{
			Level:   AlertWarning,
			Title:   "Resultado negativo",
			Message: "El resultado de " + in.PeriodLabel + " es " + Full(in.PeriodResult) + ".",
		})
	}
	if r.AportesComprometidos.Units > 0 {
		out = append(out, Alert{
			Level:   AlertInfo,
			Title:   "Aportes comprometidos pendientes",
			Message: "Hay " + Full(r.AportesComprometidos) + " en aportes comprometidos aún no recibidos.",
		})
	}
	if in.HasColectas && r.ColectasCerradas+r.ColectasCompletadas == 0 {
		out = append(out, Alert{
			Level:   AlertInfo,
			Title:   "Sin colectas cerradas",
			Message: "Todavía no se cerró ninguna colecta.",
		})
	}
	return out
}
