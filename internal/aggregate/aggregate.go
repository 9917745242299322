// Package aggregate reduces record slices into summary figures.
//
// Every function is pure and total: empty input, a zero target or a missing
// group never produce an error, they resolve to zero values or NotAvailable.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"colectas/internal/core"
)

// NotAvailable is the label reported when a selection has no candidates.
const NotAvailable = "N/A"

// Record is any money-carrying, dated record.
type Record interface {
	Monto() core.Money
	Dia() core.Date
}

// Group is the total of the records sharing one key. Label is what a
// reader sees; it equals Key unless the grouping key is an opaque ID.
type Group struct {
	Key   string
	Label string
	Total core.Money
	Count int
}

// Total sums the amounts of records.
func Total[T Record](records []T) core.Money {
	var sum core.Money
	for _, r := range records {
		sum = sum.Add(r.Monto())
	}
	return sum
}

// Average returns total / count rounded to two decimals, or zero for an
// empty slice.
func Average[T Record](records []T) decimal.Decimal {
	if len(records) == 0 {
		return decimal.Zero
	}
	total := decimal.NewFromInt(Total(records).Units)
	return total.Div(decimal.NewFromInt(int64(len(records)))).Round(2)
}

// Where keeps the records for which keep returns true.
func Where[T any](records []T, keep func(T) bool) []T {
	var out []T
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// GroupTotals groups records by key. Groups are returned in first-seen
// order.
func GroupTotals[T Record](records []T, key func(T) string) []Group {
	return GroupTotalsBy(records, key, key)
}

// GroupTotalsBy is GroupTotals with a display label taken from the first
// record of each group.
func GroupTotalsBy[T Record](records []T, key, label func(T) string) []Group {
	idx := make(map[string]int)
	var out []Group
	for _, r := range records {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Group{Key: k, Label: label(r)})
		}
		out[i].Total = out[i].Total.Add(r.Monto())
		out[i].Count++
	}
	return out
}

// SortByTotal orders groups by descending total, ties by ascending label
// and then key.
func SortByTotal(groups []Group) []Group {
	out := append([]Group(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total.Units != out[j].Total.Units {
			return out[i].Total.Units > out[j].Total.Units
		}
		return lessGroup(out[i], out[j])
	})
	return out
}

func lessGroup(a, b Group) bool {
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	return a.Key < b.Key
}

// TopEntry returns the group with the highest total. Equal totals resolve to
// the lexicographically smallest label, then key. ok is false when groups is
// empty, in which case the returned group is keyed NotAvailable.
func TopEntry(groups []Group) (Group, bool) {
	if len(groups) == 0 {
		return Group{Key: NotAvailable, Label: NotAvailable}, false
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Total.Units > best.Total.Units || (g.Total.Units == best.Total.Units && lessGroup(g, best)) {
			best = g
		}
	}
	return best, true
}

// Porcentaje returns round(total / objetivo * 100), half away from zero.
// The value is not clamped; a zero or negative objetivo yields 0.
func Porcentaje(total, objetivo core.Money) int64 {
	if objetivo.Units <= 0 {
		return 0
	}
	p := decimal.NewFromInt(total.Units).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(objetivo.Units)).
		Round(0)
	return p.IntPart()
}

// ProgressPercent clamps a raw percentage to [0, 100] for progress bars.
func ProgressPercent(p int64) int64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Share returns part as a percentage of whole with one decimal, or zero.
func Share(part, whole core.Money) decimal.Decimal {
	if whole.Units <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Units).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole.Units)).
		Round(1)
}

// MonthKey is the "YYYY-MM" bucket of a date.
func MonthKey(d core.Date) string {
	if d.IsZero() {
		return NotAvailable
	}
	return fmt.Sprintf("%04d-%02d", d.Year(), d.Month())
}

// ByMonth groups records into YYYY-MM buckets sorted chronologically.
func ByMonth[T Record](records []T) []Group {
	groups := GroupTotals(records, func(r T) string { return MonthKey(r.Dia()) })
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}
