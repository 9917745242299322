package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Units: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Units: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Units: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestColectaValidate(t *testing.T) {
	good := Colecta{ClubID: "c1", Nombre: "Uniformes", Objetivo: Money{Units: 1000}, Estado: ColectaActiva}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Colecta{
		{Nombre: "x", Objetivo: Money{Units: 1}, Estado: ColectaActiva},
		{ClubID: "c1", Nombre: "", Objetivo: Money{Units: 1}, Estado: ColectaActiva},
		{ClubID: "c1", Nombre: "x", Objetivo: Money{Units: 0}, Estado: ColectaActiva},
		{ClubID: "c1", Nombre: "x", Objetivo: Money{Units: 1}, Estado: "abierta"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestAporteValidate(t *testing.T) {
	good := Aporte{
		ClubID:     "c1",
		MiembroID:  "m1",
		Cantidad:   Money{Units: 5000},
		Estado:     AporteAportado,
		MetodoPago: PagoEfectivo,
		Fecha:      NewDate(2025, 3, 2),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Aporte{
		{ClubID: "c1", Cantidad: Money{Units: 1}, Estado: AporteAportado, MetodoPago: PagoEfectivo, Fecha: NewDate(2025, 1, 1)},
		{ClubID: "c1", MiembroID: "m", Cantidad: Money{Units: 0}, Estado: AporteAportado, MetodoPago: PagoEfectivo, Fecha: NewDate(2025, 1, 1)},
		{ClubID: "c1", MiembroID: "m", Cantidad: Money{Units: 1}, Estado: "pagado", MetodoPago: PagoEfectivo, Fecha: NewDate(2025, 1, 1)},
		{ClubID: "c1", MiembroID: "m", Cantidad: Money{Units: 1}, Estado: AporteAportado, MetodoPago: "bitcoin", Fecha: NewDate(2025, 1, 1)},
		{ClubID: "c1", MiembroID: "m", Cantidad: Money{Units: 1}, Estado: AporteAportado, MetodoPago: PagoEfectivo},
	}
	for i, a := range bads {
		if err := a.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGastoValidate(t *testing.T) {
	good := Gasto{
		ClubID:          "c1",
		Concepto:        "Alquiler cancha",
		Categoria:       "cancha",
		Cantidad:        Money{Units: 80000},
		QuienPagoNombre: "Ana",
		TipoGasto:       GastoGeneral,
		Fecha:           NewDate(2025, 5, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noCat := good
	noCat.Categoria = " "
	if err := noCat.Validate(); !errors.Is(err, ErrEmptyCategoria) {
		t.Fatalf("expected ErrEmptyCategoria, got %v", err)
	}

	noPayer := good
	noPayer.QuienPagoNombre = ""
	if err := noPayer.Validate(); !errors.Is(err, ErrEmptyMiembro) {
		t.Fatalf("expected ErrEmptyMiembro, got %v", err)
	}
}

func TestIngresoValidateNormalizesLegacyFuente(t *testing.T) {
	in := Ingreso{ClubID: "c1", Concepto: "Sponsor", Cantidad: Money{Units: 10}, Fuente: "Patrocinio", Fecha: NewDate(2025, 1, 1)}
	if err := in.Validate(); err != nil {
		t.Fatalf("legacy fuente should validate, got %v", err)
	}
	if got := NormalizeFuente(in.Fuente); got != "patrocinios" {
		t.Fatalf("NormalizeFuente = %q, want patrocinios", got)
	}
	in.Fuente = "loteria"
	if err := in.Validate(); !errors.Is(err, ErrInvalidFuente) {
		t.Fatalf("expected ErrInvalidFuente, got %v", err)
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrPaymentExceedsDebt) {
		t.Fatal("payment guard should be a validation error")
	}
	if !IsValidationError(ValidationError{Msg: "x"}) {
		t.Fatal("ValidationError should be a validation error")
	}
	if IsValidationError(ErrNotFound) {
		t.Fatal("not found is not a validation error")
	}
	if IsValidationError(errors.New("disk full")) {
		t.Fatal("arbitrary errors are not validation errors")
	}
}
