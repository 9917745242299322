package core

// Monto and Dia give the aggregation and filter layers a uniform view of the
// money-carrying records. For debts the relevant amount is what is still owed.

func (a Aporte) Monto() Money  { return a.Cantidad }
func (g Gasto) Monto() Money   { return g.Cantidad }
func (i Ingreso) Monto() Money { return i.Cantidad }
func (d Deuda) Monto() Money   { return d.MontoRestante }

func (a Aporte) Dia() Date  { return a.Fecha }
func (g Gasto) Dia() Date   { return g.Fecha }
func (i Ingreso) Dia() Date { return i.Fecha }
func (d Deuda) Dia() Date   { return d.Fecha }
