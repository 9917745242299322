package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ColectaActiva     EstadoColecta = "activa"
	ColectaCerrada    EstadoColecta = "cerrada"
	ColectaCompletada EstadoColecta = "completada"

	AporteAportado     EstadoAporte = "aportado"
	AporteComprometido EstadoAporte = "comprometido"

	PagoEfectivo      MetodoPago = "efectivo"
	PagoTransferencia MetodoPago = "transferencia"
	PagoCheque        MetodoPago = "cheque"
	PagoOtro          MetodoPago = "otro"

	GastoGeneral      TipoGasto = "general"
	GastoColecta      TipoGasto = "colecta"
	GastoReembolsable TipoGasto = "reembolsable"

	MiembroActivo   EstadoMiembro = "activo"
	MiembroInactivo EstadoMiembro = "inactivo"

	RolAdmin    Rol = "admin"
	RolTesorero Rol = "tesorero"
)

// Known expense categories. Categoria stays free-form; these are the ones
// offered by default and used to order breakdowns.
var CategoriasGasto = []string{
	"cancha", "arbitros", "jugadores", "equipamiento", "viajes", "alimentacion", "otros",
}

type (
	EstadoColecta string
	EstadoAporte  string
	MetodoPago    string
	TipoGasto     string
	EstadoMiembro string
	Rol           string

	Date struct {
		time.Time
	}

	Money struct {
		Units int64
	}

	Colecta struct {
		ID          string
		ClubID      string
		Nombre      string
		Descripcion string
		Objetivo    Money
		Estado      EstadoColecta
		FechaCierre *Date
		CreatedAt   time.Time
	}

	Aporte struct {
		ID            string
		ClubID        string
		ColectaID     string // empty for general contributions
		MiembroID     string
		MiembroNombre string // snapshot kept after the member is deleted
		Cantidad      Money
		Estado        EstadoAporte
		MetodoPago    MetodoPago
		Fecha         Date
		Notas         string
	}

	Gasto struct {
		ID              string
		ClubID          string
		Concepto        string
		Categoria       string
		Cantidad        Money
		QuienPagoID     string
		QuienPagoNombre string
		ColectaID       string
		TipoGasto       TipoGasto
		Fecha           Date
		Notas           string
	}

	Ingreso struct {
		ID            string
		ClubID        string
		Concepto      string
		Cantidad      Money
		Fuente        string
		MiembroID     string
		MiembroNombre string
		Fecha         Date
	}

	Miembro struct {
		ID         string
		ClubID     string
		Nombre     string
		Email      string
		Telefono   string
		Estado     EstadoMiembro
		DeudaCuota Money
	}

	Usuario struct {
		ID     string
		ClubID string
		Email  string
		Nombre string
		Rol    Rol
	}
)

var (
	ErrInvalidDate        = errors.New("date cannot be zero")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyNombre        = errors.New("empty nombre")
	ErrEmptyConcepto      = errors.New("empty concepto")
	ErrEmptyCategoria     = errors.New("empty categoria")
	ErrEmptyMiembro       = errors.New("missing miembro")
	ErrEmptyClub          = errors.New("missing club")
	ErrInvalidEstado      = errors.New("invalid estado")
	ErrInvalidMetodoPago  = errors.New("invalid metodo de pago")
	ErrInvalidTipoGasto   = errors.New("invalid tipo de gasto")
	ErrInvalidFuente      = errors.New("invalid fuente")
	ErrInvalidRol         = errors.New("invalid rol")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPaymentExceedsDebt = errors.New("payment exceeds remaining debt")
	ErrNotFound           = errors.New("not found")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (e EstadoColecta) Valid() bool {
	switch e {
	case ColectaActiva, ColectaCerrada, ColectaCompletada:
		return true
	}
	return false
}

func (e EstadoAporte) Valid() bool {
	return e == AporteAportado || e == AporteComprometido
}

func (m MetodoPago) Valid() bool {
	switch m {
	case PagoEfectivo, PagoTransferencia, PagoCheque, PagoOtro:
		return true
	}
	return false
}

func (t TipoGasto) Valid() bool {
	switch t {
	case GastoGeneral, GastoColecta, GastoReembolsable:
		return true
	}
	return false
}

func (e EstadoMiembro) Valid() bool {
	return e == MiembroActivo || e == MiembroInactivo
}

func (r Rol) Valid() bool {
	return r == RolAdmin || r == RolTesorero
}

func (c Colecta) Validate() error {
	if strings.TrimSpace(c.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(c.Nombre) == "" {
		return ErrEmptyNombre
	}
	if len(c.Nombre) > 120 {
		return ValidationError{Msg: "nombre too long (max 120 characters)"}
	}
	if err := c.Objetivo.Validate(); err != nil {
		return err
	}
	if !c.Estado.Valid() {
		return ErrInvalidEstado
	}
	if c.FechaCierre != nil && !c.FechaCierre.IsZero() {
		if err := c.FechaCierre.Validate(); err != nil {
			return ValidationError{Msg: "invalid fecha de cierre: " + err.Error()}
		}
	}
	return nil
}

func (a Aporte) Validate() error {
	if strings.TrimSpace(a.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(a.MiembroID) == "" && strings.TrimSpace(a.MiembroNombre) == "" {
		return ErrEmptyMiembro
	}
	if err := a.Cantidad.Validate(); err != nil {
		return err
	}
	if !a.Estado.Valid() {
		return ErrInvalidEstado
	}
	if !a.MetodoPago.Valid() {
		return ErrInvalidMetodoPago
	}
	return a.Fecha.Validate()
}

func (g Gasto) Validate() error {
	if strings.TrimSpace(g.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(g.Concepto) == "" {
		return ErrEmptyConcepto
	}
	if len(g.Concepto) > 200 {
		return ValidationError{Msg: "concepto too long (max 200 characters)"}
	}
	if strings.TrimSpace(g.Categoria) == "" {
		return ErrEmptyCategoria
	}
	if err := g.Cantidad.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(g.QuienPagoID) == "" && strings.TrimSpace(g.QuienPagoNombre) == "" {
		return ErrEmptyMiembro
	}
	if !g.TipoGasto.Valid() {
		return ErrInvalidTipoGasto
	}
	return g.Fecha.Validate()
}

func (i Ingreso) Validate() error {
	if strings.TrimSpace(i.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(i.Concepto) == "" {
		return ErrEmptyConcepto
	}
	if err := i.Cantidad.Validate(); err != nil {
		return err
	}
	if !ValidFuente(i.Fuente) {
		return ErrInvalidFuente
	}
	return i.Fecha.Validate()
}

func (m Miembro) Validate() error {
	if strings.TrimSpace(m.ClubID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(m.Nombre) == "" {
		return ErrEmptyNombre
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return ErrInvalidEmail
	}
	if !m.Estado.Valid() {
		return ErrInvalidEstado
	}
	if m.DeudaCuota.Units < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (u Usuario) Validate() error {
	if strings.TrimSpace(u.ClubID) == "" {
		return ErrEmptyClub
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if !u.Rol.Valid() {
		return ErrInvalidRol
	}
	return nil
}

// IsValidationError reports whether err is one of the input validation
// errors (as opposed to storage or transport failures).
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidDay, ErrInvalidMonth, ErrInvalidAmount, ErrNegativeAmount,
		ErrEmptyNombre, ErrEmptyConcepto, ErrEmptyCategoria, ErrEmptyMiembro,
		ErrEmptyClub, ErrInvalidEstado, ErrInvalidMetodoPago, ErrInvalidTipoGasto,
		ErrInvalidFuente, ErrInvalidRol, ErrInvalidEmail, ErrPaymentExceedsDebt,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// ValidationError wraps free-form validation messages that have no sentinel.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }
