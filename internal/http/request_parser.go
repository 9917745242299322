// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON objects or form-encoded; both are read through the same
// accessor so handlers stay independent of the content type.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"colectas/internal/core"
)

const maxBodyBytes = 1 << 20

// ErrBadBody is returned when the request body cannot be decoded.
var ErrBadBody = errors.New("malformed request body")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
	fieldErr    error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most 1 MiB of the body once and keeps it for later parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", ErrBadBody, p.err)
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		return p.err
	}

	var err error
	p.formData, err = url.ParseQuery(body)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return p.err
}

// Has reports whether key was sent at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Money parses key as an amount. A missing value is zero; an unparsable one
// is recorded and reported by Err.
//
// JSON numbers are taken at face value; only strings and form fields go
// through the grouping rules of core.ParseAmount.
func (p *RequestBodyParser) Money(key string) core.Money {
	if n, ok := p.jsonData[key].(float64); ok {
		units, err := core.AmountFromDecimal(decimal.NewFromFloat(n))
		if err != nil {
			p.fail(key, err)
			return core.Money{}
		}
		return core.Money{Units: units}
	}
	raw := p.Get(key)
	if raw == "" {
		return core.Money{}
	}
	units, err := core.ParseAmount(raw)
	if err != nil {
		p.fail(key, err)
		return core.Money{}
	}
	return core.Money{Units: units}
}

// Date parses key as a YYYY-MM-DD date. A missing value is the zero date.
func (p *RequestBodyParser) Date(key string) core.Date {
	raw := p.Get(key)
	if raw == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		p.fail(key, err)
		return core.Date{}
	}
	return d
}

// OptionalDate is like Date but returns nil for a missing value.
func (p *RequestBodyParser) OptionalDate(key string) *core.Date {
	if p.Get(key) == "" {
		return nil
	}
	d := p.Date(key)
	if d.IsZero() {
		return nil
	}
	return &d
}

func (p *RequestBodyParser) fail(key string, err error) {
	if p.fieldErr == nil {
		p.fieldErr = core.ValidationError{Msg: fmt.Sprintf("%s: %v", key, err)}
	}
}

// Err returns the first field conversion error.
func (p *RequestBodyParser) Err() error { return p.fieldErr }

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters except tab and newline.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
}

// queryInt reads a positive integer query parameter, or def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseColecta(p *RequestBodyParser) core.Colecta {
	return core.Colecta{
		Nombre:      p.Get("nombre"),
		Descripcion: p.Get("descripcion"),
		Objetivo:    p.Money("objetivo"),
		Estado:      core.EstadoColecta(strings.ToLower(p.Get("estado"))),
		FechaCierre: p.OptionalDate("fecha_cierre"),
	}
}

func parseAporte(p *RequestBodyParser) core.Aporte {
	return core.Aporte{
		ColectaID:     p.Get("colecta_id"),
		MiembroID:     p.Get("miembro_id"),
		MiembroNombre: p.Get("miembro_nombre"),
		Cantidad:      p.Money("cantidad"),
		Estado:        core.EstadoAporte(strings.ToLower(p.Get("estado"))),
		MetodoPago:    core.MetodoPago(strings.ToLower(p.Get("metodo_pago"))),
		Fecha:         p.Date("fecha"),
		Notas:         p.Get("notas"),
	}
}

func parseGasto(p *RequestBodyParser) core.Gasto {
	return core.Gasto{
		Concepto:        p.Get("concepto"),
		Categoria:       p.Get("categoria"),
		Cantidad:        p.Money("cantidad"),
		QuienPagoID:     p.Get("quien_pago_id"),
		QuienPagoNombre: p.Get("quien_pago_nombre"),
		ColectaID:       p.Get("colecta_id"),
		TipoGasto:       core.TipoGasto(strings.ToLower(p.Get("tipo_gasto"))),
		Fecha:           p.Date("fecha"),
		Notas:           p.Get("notas"),
	}
}

func parseIngreso(p *RequestBodyParser) core.Ingreso {
	return core.Ingreso{
		Concepto:      p.Get("concepto"),
		Cantidad:      p.Money("cantidad"),
		Fuente:        p.Get("fuente"),
		MiembroID:     p.Get("miembro_id"),
		MiembroNombre: p.Get("miembro_nombre"),
		Fecha:         p.Date("fecha"),
	}
}

func parseDeuda(p *RequestBodyParser) core.Deuda {
	return core.Deuda{
		MiembroID:     p.Get("miembro_id"),
		MiembroNombre: p.Get("miembro_nombre"),
		Concepto:      p.Get("concepto"),
		MontoOriginal: p.Money("monto_original"),
		Fecha:         p.Date("fecha"),
	}
}

func parseMiembro(p *RequestBodyParser) core.Miembro {
	return core.Miembro{
		Nombre:     p.Get("nombre"),
		Email:      p.Get("email"),
		Telefono:   p.Get("telefono"),
		Estado:     core.EstadoMiembro(strings.ToLower(p.Get("estado"))),
		DeudaCuota: p.Money("deuda_cuota"),
	}
}

func parseUsuario(p *RequestBodyParser) core.Usuario {
	return core.Usuario{
		Email:  p.Get("email"),
		Nombre: p.Get("nombre"),
		Rol:    core.Rol(strings.ToLower(p.Get("rol"))),
	}
}

type pagoInput struct {
	Monto core.Money
	Notas string
}

func parsePago(p *RequestBodyParser) pagoInput {
	return pagoInput{Monto: p.Money("monto"), Notas: p.Get("notas")}
}
