// Package report turns club ledgers into exportable shapes: flat tables for
// CSV and spreadsheets, and paginated documents rendered to PDF.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"colectas/internal/core"
)

// NoData is the placeholder row shown for sections without records.
const NoData = "No hay datos disponibles"

const currencyPrefix = "$ "

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// Compact renders amounts for summaries: "1.5 mill", "250 mil", "850".
// One decimal is kept only when the scaled value is not whole. The unit is
// chosen after rounding, so 999.999 is "1 mill" rather than "1000 mil".
func Compact(m core.Money) string {
	v := decimal.NewFromInt(m.Units)
	thousands := v.Div(thousand).Round(1)
	switch {
	case thousands.Abs().GreaterThanOrEqual(thousand):
		return scaled(v.Div(million)) + " mill"
	case v.Abs().GreaterThanOrEqual(thousand):
		return scaled(thousands) + " mil"
	}
	return v.String()
}

func scaled(v decimal.Decimal) string {
	r := v.Round(1)
	if r.Equal(r.Truncate(0)) {
		return r.Truncate(0).String()
	}
	return r.StringFixed(1)
}

// Full renders amounts for exports with Spanish thousands grouping:
// "$ 1.500.000". Negative amounts are prefixed with a minus sign.
func Full(m core.Money) string {
	p := message.NewPrinter(language.Spanish)
	if m.Units < 0 {
		return "-" + currencyPrefix + p.Sprintf("%d", -m.Units)
	}
	return currencyPrefix + p.Sprintf("%d", m.Units)
}

// Percent renders an integer percentage.
func Percent(p int64) string {
	return decimal.NewFromInt(p).String() + "%"
}

// FormatDate renders a record date as DD/MM/YYYY, empty for the zero date.
func FormatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// FormatTimestamp renders a generation time in loc.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 15:04")
}

// FileName builds "<entity>_<YYYY-MM-DD>.<ext>".
func FileName(entity string, now time.Time, ext string) string {
	entity = strings.ToLower(strings.TrimSpace(entity))
	entity = strings.ReplaceAll(entity, " ", "_")
	return entity + "_" + now.Format("2006-01-02") + "." + strings.TrimPrefix(ext, ".")
}

// Label capitalizes an enum value for display: "parcial_pagada" becomes
// "Parcial pagada".
func Label(s string) string {
	r := []rune(strings.ReplaceAll(s, "_", " "))
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
