package core

// Ledger is a fully loaded, in-memory snapshot of one club's records.
// Aggregation and report composition work on a private Ledger copy.
type Ledger struct {
	ClubID   string
	Colectas []Colecta
	Aportes  []Aporte
	Gastos   []Gasto
	Ingresos []Ingreso
	Deudas   []Deuda
	Miembros []Miembro
}

// Clone returns a copy whose slices do not alias the receiver's.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	return &Ledger{
		ClubID:   l.ClubID,
		Colectas: append([]Colecta(nil), l.Colectas...),
		Aportes:  append([]Aporte(nil), l.Aportes...),
		Gastos:   append([]Gasto(nil), l.Gastos...),
		Ingresos: append([]Ingreso(nil), l.Ingresos...),
		Deudas:   append([]Deuda(nil), l.Deudas...),
		Miembros: append([]Miembro(nil), l.Miembros...),
	}
}

// AportesDe returns the contributions linked to colectaID.
func (l *Ledger) AportesDe(colectaID string) []Aporte {
	var out []Aporte
	for _, a := range l.Aportes {
		if a.ColectaID == colectaID {
			out = append(out, a)
		}
	}
	return out
}

// GastosDe returns the expenses linked to colectaID.
func (l *Ledger) GastosDe(colectaID string) []Gasto {
	var out []Gasto
	for _, g := range l.Gastos {
		if g.ColectaID == colectaID {
			out = append(out, g)
		}
	}
	return out
}
