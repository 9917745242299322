// Package filter narrows record lists by free text, category and period
// before they are aggregated or exported.
package filter

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"colectas/internal/core"
)

type Period string

const (
	PeriodAll     Period = "all"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// allCategories are the category values meaning "no constraint".
var allCategories = map[string]bool{"": true, "all": true, "todos": true, "todas": true}

// Criteria is the set of active filters. The zero value matches everything.
type Criteria struct {
	Query    string
	Category string
	Period   Period
}

// Fields tells Apply how to read a record. A nil accessor disables the
// matching filter for that record type.
type Fields[T any] struct {
	Text     func(T) []string
	Category func(T) string
	Date     func(T) core.Date
}

// ParsePeriod maps user input (English or Spanish) to a Period. Unknown
// values resolve to PeriodAll.
func ParsePeriod(s string) Period {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "mes", "este_mes":
		return PeriodMonth
	case "quarter", "trimestre", "este_trimestre":
		return PeriodQuarter
	case "year", "anio", "año", "este_anio":
		return PeriodYear
	}
	return PeriodAll
}

// ParseCriteria reads the q, categoria and periodo query parameters.
func ParseCriteria(v url.Values) Criteria {
	return Criteria{
		Query:    strings.TrimSpace(v.Get("q")),
		Category: strings.TrimSpace(v.Get("categoria")),
		Period:   ParsePeriod(v.Get("periodo")),
	}
}

// Active reports whether any filter constrains the result.
func (c Criteria) Active() bool {
	return strings.TrimSpace(c.Query) != "" ||
		!allCategories[strings.ToLower(strings.TrimSpace(c.Category))] ||
		(c.Period != "" && c.Period != PeriodAll)
}

// Apply returns the records passing every active filter, in input order.
// With no active filter the input slice itself is returned.
func Apply[T any](records []T, c Criteria, now time.Time, f Fields[T]) []T {
	if !c.Active() {
		return records
	}
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(c.Query))
	category := strings.TrimSpace(c.Category)
	if allCategories[strings.ToLower(category)] {
		category = ""
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if query != "" && !matchText(fold, f.Text, r, query) {
			continue
		}
		if category != "" && f.Category != nil && !strings.EqualFold(f.Category(r), category) {
			continue
		}
		if f.Date != nil && !InPeriod(f.Date(r), c.Period, now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchText[T any](fold cases.Caser, text func(T) []string, r T, query string) bool {
	if text == nil {
		return false
	}
	for _, s := range text(r) {
		if strings.Contains(fold.String(s), query) {
			return true
		}
	}
	return false
}

// InPeriod reports whether d falls in the bucket p relative to now.
// Quarters are computed on the zero-based month, so January to March share
// bucket 0.
func InPeriod(d core.Date, p Period, now time.Time) bool {
	switch p {
	case PeriodMonth:
		return d.Year() == now.Year() && d.Month() == int(now.Month())
	case PeriodQuarter:
		return d.Year() == now.Year() && (d.Month()-1)/3 == (int(now.Month())-1)/3
	case PeriodYear:
		return d.Year() == now.Year()
	}
	return true
}
