package core

import (
	"strings"
	"time"
)

const (
	DeudaPendiente     EstadoDeuda = "pendiente"
	DeudaParcialPagada EstadoDeuda = "parcial_pagada"
	DeudaPagada        EstadoDeuda = "pagada"
)

type (
	EstadoDeuda string

	// Deuda is money the club owes to one of its members.
	Deuda struct {
		ID            string
		ClubID        string
		MiembroID     string
		MiembroNombre string
		Concepto      string
		MontoOriginal Money
		MontoPagado   Money
		MontoRestante Money
		Estado        EstadoDeuda
		Fecha         Date
	}

	// PagoDeuda is one accepted payment against a Deuda.
	PagoDeuda struct {
		ID      string
		DeudaID string
		ClubID  string
		Monto   Money
		Fecha   time.Time
		Notas   string
	}
)

func (e EstadoDeuda) Valid() bool {
	switch e {
	case DeudaPendiente, DeudaParcialPagada, DeudaPagada:
		return true
	}
	return false
}

// NewDeuda returns a pending debt with nothing paid yet.
func NewDeuda(clubID, miembroID, miembroNombre, concepto string, monto Money, fecha Date) Deuda {
	return Deuda{
		ClubID:        clubID,
		MiembroID:     miembroID,
		MiembroNombre: miembroNombre,
		Concepto:      concepto,
		MontoOriginal: monto,
		MontoRestante: monto,
		Estado:        DeudaPendiente,
		Fecha:         fecha,
	}
}

func (d Deuda) Validate() error {
	if strings.TrimSpace(d.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(d.MiembroID) == "" && strings.TrimSpace(d.MiembroNombre) == "" {
		return ErrEmptyMiembro
	}
	if strings.TrimSpace(d.Concepto) == "" {
		return ErrEmptyConcepto
	}
	if err := d.MontoOriginal.Validate(); err != nil {
		return err
	}
	if d.MontoPagado.Units < 0 || d.MontoRestante.Units < 0 {
		return ErrNegativeAmount
	}
	if d.MontoPagado.Units > d.MontoOriginal.Units {
		return ErrPaymentExceedsDebt
	}
	if !d.Estado.Valid() {
		return ErrInvalidEstado
	}
	return nil
}

// Recalculate derives MontoRestante and Estado from MontoOriginal and
// MontoPagado.
func (d *Deuda) Recalculate() {
	d.MontoRestante = d.MontoOriginal.Sub(d.MontoPagado).ClampZero()
	switch {
	case d.MontoRestante.IsZero():
		d.Estado = DeudaPagada
	case d.MontoPagado.Units > 0:
		d.Estado = DeudaParcialPagada
	default:
		d.Estado = DeudaPendiente
	}
}

// RegistrarPago applies a payment of p. The payment must satisfy
// 0 < p <= MontoRestante; otherwise the debt is left untouched and
// ErrInvalidAmount or ErrPaymentExceedsDebt is returned.
func (d *Deuda) RegistrarPago(p Money) error {
	if p.Units <= 0 {
		return ErrInvalidAmount
	}
	if p.Units > d.MontoRestante.Units {
		return ErrPaymentExceedsDebt
	}
	d.MontoPagado = d.MontoPagado.Add(p)
	d.Recalculate()
	return nil
}
