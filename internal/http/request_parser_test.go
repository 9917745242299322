package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"colectas/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRequestBodyParserJSON(t *testing.T) {
	p := newParser(t, "application/json", `{"concepto":"  Cancha\u0007 ","cantidad":1500,"activo":true}`)
	if !p.IsJSON() {
		t.Fatal("expected JSON body")
	}
	if got := p.Get("concepto"); got != "Cancha" {
		t.Errorf("concepto = %q, want trimmed and sanitized", got)
	}
	if got := p.Money("cantidad"); got.Units != 1500 {
		t.Errorf("cantidad = %d, want 1500", got.Units)
	}
	if got := p.Get("activo"); got != "true" {
		t.Errorf("activo = %q", got)
	}
	if p.Has("missing") || !p.Has("concepto") {
		t.Error("Has reports wrong presence")
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "cantidad=1.500.000&fecha=2025-04-10")
	if p.IsJSON() {
		t.Fatal("expected form body")
	}
	if got := p.Money("cantidad"); got.Units != 1_500_000 {
		t.Errorf("cantidad = %d", got.Units)
	}
	if got := p.Date("fecha"); got.ISO() != "2025-04-10" {
		t.Errorf("fecha = %s", got.ISO())
	}
	if p.OptionalDate("fecha_cierre") != nil {
		t.Error("missing optional date should be nil")
	}
	if err := p.Err(); err != nil {
		t.Errorf("Err = %v", err)
	}
}

func TestRequestBodyParserJSONNumbersAreNotGrouped(t *testing.T) {
	p := newParser(t, "application/json", `{"cantidad":12.345,"objetivo":"12.345","monto":99.5,"negativo":-3}`)
	if got := p.Money("cantidad"); got.Units != 12 {
		t.Errorf("number 12.345 = %d, want 12", got.Units)
	}
	if got := p.Money("objetivo"); got.Units != 12_345 {
		t.Errorf("string \"12.345\" = %d, want 12345", got.Units)
	}
	if got := p.Money("monto"); got.Units != 100 {
		t.Errorf("number 99.5 = %d, want 100", got.Units)
	}
	if err := p.Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
	if got := p.Money("negativo"); !got.IsZero() || !core.IsValidationError(p.Err()) {
		t.Errorf("negative number = %d, err %v", got.Units, p.Err())
	}
}

func TestRequestBodyParserFieldErrors(t *testing.T) {
	p := newParser(t, "", `{"cantidad":"abc","fecha":"2025-13-01"}`)
	if got := p.Money("cantidad"); !got.IsZero() {
		t.Errorf("bad amount should parse to zero, got %d", got.Units)
	}
	_ = p.Date("fecha")

	err := p.Err()
	if !core.IsValidationError(err) {
		t.Fatalf("Err = %v, want a validation error", err)
	}
	if !strings.HasPrefix(err.Error(), "cantidad:") {
		t.Errorf("first error should name cantidad, got %q", err)
	}
}

func TestRequestBodyParserMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre": }`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); !errors.Is(err, ErrBadBody) {
		t.Errorf("Parse = %v, want ErrBadBody", err)
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	body := `{"notas":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); !errors.Is(err, ErrBadBody) {
		t.Errorf("Parse = %v, want ErrBadBody", err)
	}
}

func TestParseEntities(t *testing.T) {
	p := newParser(t, "application/json",
		`{"nombre":"Torneo","objetivo":"10.000","estado":"ACTIVA","fecha_cierre":"2025-06-30"}`)
	c := parseColecta(p)
	if c.Objetivo.Units != 10_000 || c.Estado != core.ColectaActiva {
		t.Errorf("colecta = %+v", c)
	}
	if c.FechaCierre == nil || c.FechaCierre.ISO() != "2025-06-30" {
		t.Errorf("fecha_cierre = %v", c.FechaCierre)
	}

	p = newParser(t, "application/json", `{"email":"a@b.c","rol":"Admin"}`)
	if u := parseUsuario(p); u.Rol != core.RolAdmin {
		t.Errorf("rol = %q", u.Rol)
	}
}
