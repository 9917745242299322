package services

import (
	"context"
	"strings"

	"colectas/internal/core"
	"colectas/internal/filter"
	"colectas/internal/log"
	"colectas/internal/session"
)

func (s *ClubService) ListDeudas(ctx context.Context, sess session.Session, c filter.Criteria) ([]core.Deuda, error) {
	l, err := s.Ledger(ctx, sess.ClubID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(l.Deudas, c, s.now(), filter.DeudaFields), nil
}

func (s *ClubService) GetDeuda(ctx context.Context, sess session.Session, id string) (core.Deuda, error) {
	return s.store.GetDeuda(ctx, sess.ClubID, id)
}

// CreateDeuda opens a pending debt for the full amount.
func (s *ClubService) CreateDeuda(ctx context.Context, sess session.Session, in core.Deuda) (core.Deuda, error) {
	fecha := in.Fecha
	if fecha.IsZero() {
		fecha = s.today()
	}
	nombre, err := s.miembroNombre(ctx, sess.ClubID, in.MiembroID, in.MiembroNombre)
	if err != nil {
		return core.Deuda{}, err
	}
	d := core.NewDeuda(sess.ClubID, in.MiembroID, nombre, strings.TrimSpace(in.Concepto), in.MontoOriginal, fecha)
	d.ID = s.newID()
	if err := d.Validate(); err != nil {
		return core.Deuda{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadDeuda, AccionCreate,
		func(l *core.Ledger) { l.Deudas = append(l.Deudas, d) },
		func(ctx context.Context) error { return s.store.CreateDeuda(ctx, d) })
	if err != nil {
		return core.Deuda{}, err
	}
	s.recordAmount(EntidadDeuda, d.MontoOriginal)
	s.audit(ctx, sess, AccionCreate, EntidadDeuda, d.ID, nil)
	return d, nil
}

// UpdateDeuda edits the descriptive fields and the original amount. The
// paid amount is owned by RegistrarPago; lowering the original amount
// below it is rejected.
func (s *ClubService) UpdateDeuda(ctx context.Context, sess session.Session, id string, in core.Deuda) (core.Deuda, error) {
	if err := s.payments.Lock(ctx); err != nil {
		return core.Deuda{}, err
	}
	defer s.payments.Unlock()

	old, err := s.store.GetDeuda(ctx, sess.ClubID, id)
	if err != nil {
		return core.Deuda{}, err
	}
	d := old
	d.Concepto = strings.TrimSpace(in.Concepto)
	if !in.Fecha.IsZero() {
		d.Fecha = in.Fecha
	}
	if in.MontoOriginal.Units != 0 {
		d.MontoOriginal = in.MontoOriginal
	}
	if in.MiembroID != old.MiembroID || in.MiembroNombre != "" {
		if d.MiembroNombre, err = s.snapshotNombre(ctx, sess.ClubID, in.MiembroID, old.MiembroID, in.MiembroNombre); err != nil {
			return core.Deuda{}, err
		}
		d.MiembroID = in.MiembroID
	}
	if d.MontoOriginal.Units < d.MontoPagado.Units {
		return core.Deuda{}, core.ErrPaymentExceedsDebt
	}
	d.Recalculate()
	if err := d.Validate(); err != nil {
		return core.Deuda{}, err
	}
	err = s.write(ctx, sess.ClubID, EntidadDeuda, AccionUpdate,
		func(l *core.Ledger) { l.Deudas = replaceByID(l.Deudas, deudaID, d) },
		func(ctx context.Context) error { return s.store.UpdateDeuda(ctx, d) })
	if err != nil {
		return core.Deuda{}, err
	}
	s.audit(ctx, sess, AccionUpdate, EntidadDeuda, id, diffDeuda(old, d))
	return d, nil
}

// DeleteDeuda removes the debt and its payment history.
func (s *ClubService) DeleteDeuda(ctx context.Context, sess session.Session, id string) error {
	err := s.write(ctx, sess.ClubID, EntidadDeuda, AccionDelete,
		func(l *core.Ledger) { l.Deudas = removeWhere(l.Deudas, func(d core.Deuda) bool { return d.ID == id }) },
		func(ctx context.Context) error { return s.store.DeleteDeuda(ctx, sess.ClubID, id) })
	if err != nil {
		return err
	}
	s.audit(ctx, sess, AccionDelete, EntidadDeuda, id, nil)
	return nil
}

// RegistrarPago applies a payment to a debt and stores it in the payment
// history. Payments are serialized so two concurrent payments cannot both
// pass the remaining-amount check.
func (s *ClubService) RegistrarPago(ctx context.Context, sess session.Session, id string, monto core.Money, notas string) (core.Deuda, core.PagoDeuda, error) {
	if err := s.payments.Lock(ctx); err != nil {
		return core.Deuda{}, core.PagoDeuda{}, err
	}
	defer s.payments.Unlock()

	d, err := s.store.GetDeuda(ctx, sess.ClubID, id)
	if err != nil {
		return core.Deuda{}, core.PagoDeuda{}, err
	}
	before := d
	if err := d.RegistrarPago(monto); err != nil {
		return before, core.PagoDeuda{}, err
	}
	p := core.PagoDeuda{
		ID:      s.newID(),
		DeudaID: d.ID,
		ClubID:  sess.ClubID,
		Monto:   monto,
		Fecha:   s.now().UTC(),
		Notas:   strings.TrimSpace(notas),
	}
	err = s.write(ctx, sess.ClubID, EntidadDeuda, AccionPago,
		func(l *core.Ledger) { l.Deudas = replaceByID(l.Deudas, deudaID, d) },
		func(ctx context.Context) error { return s.store.RecordPago(ctx, d, p) })
	if err != nil {
		return before, core.PagoDeuda{}, err
	}

	if s.metrics != nil {
		s.metrics.DebtPayments.Inc()
	}
	s.recordAmount("pago", monto)
	s.logger.InfoContext(ctx, "Debt payment registered",
		log.FieldClubID, sess.ClubID,
		log.FieldRecordID, d.ID,
		log.FieldAmount, monto.Units,
		log.FieldEstado, string(d.Estado))
	s.audit(ctx, sess, AccionPago, EntidadDeuda, d.ID, diffDeuda(before, d))
	return d, p, nil
}

// ListPagos returns the payment history of a debt.
func (s *ClubService) ListPagos(ctx context.Context, sess session.Session, deudaID string) ([]core.PagoDeuda, error) {
	if _, err := s.store.GetDeuda(ctx, sess.ClubID, deudaID); err != nil {
		return nil, err
	}
	return s.store.ListPagos(ctx, sess.ClubID, deudaID)
}
