package core

import (
	"errors"
	"testing"
)

func TestDeudaPaymentSequence(t *testing.T) {
	d := NewDeuda("c1", "m1", "Luis", "Viaje a torneo", Money{Units: 100000}, NewDate(2025, 2, 1))
	if d.Estado != DeudaPendiente || d.MontoRestante.Units != 100000 {
		t.Fatalf("unexpected initial state: %+v", d)
	}

	if err := d.RegistrarPago(Money{Units: 40000}); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if d.Estado != DeudaParcialPagada || d.MontoRestante.Units != 60000 {
		t.Fatalf("after 40000: estado=%s restante=%d", d.Estado, d.MontoRestante.Units)
	}

	if err := d.RegistrarPago(Money{Units: 60000}); err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if d.Estado != DeudaPagada || d.MontoRestante.Units != 0 {
		t.Fatalf("after 60000: estado=%s restante=%d", d.Estado, d.MontoRestante.Units)
	}

	before := d
	if err := d.RegistrarPago(Money{Units: 1}); !errors.Is(err, ErrPaymentExceedsDebt) {
		t.Fatalf("expected ErrPaymentExceedsDebt, got %v", err)
	}
	if d != before {
		t.Fatalf("rejected payment mutated debt: %+v", d)
	}
}

func TestDeudaInvariantHoldsAfterEveryPayment(t *testing.T) {
	d := NewDeuda("c1", "m1", "Ana", "Arbitraje", Money{Units: 1000}, NewDate(2025, 1, 1))
	for _, p := range []int64{1, 99, 300, 2000, 0, 600} {
		_ = d.RegistrarPago(Money{Units: p})
		if d.MontoPagado.Units+d.MontoRestante.Units != d.MontoOriginal.Units {
			t.Fatalf("pagado+restante != original after %d: %+v", p, d)
		}
		if d.MontoRestante.Units < 0 {
			t.Fatalf("negative restante after %d", p)
		}
	}
	if d.Estado != DeudaPagada {
		t.Fatalf("expected pagada, got %s", d.Estado)
	}
}

func TestDeudaRejectsNonPositivePayment(t *testing.T) {
	d := NewDeuda("c1", "m1", "Ana", "x", Money{Units: 10}, NewDate(2025, 1, 1))
	if err := d.RegistrarPago(Money{Units: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if d.Estado != DeudaPendiente {
		t.Fatalf("state changed: %s", d.Estado)
	}
}
