package core

import "strings"

// Income sources accepted for Ingreso.Fuente, in display order.
var FuentesIngreso = []string{
	"cuotas",
	"rifas",
	"eventos",
	"patrocinios",
	"donaciones",
	"ventas",
	"subvenciones",
	"otros",
}

// legacyFuentes maps labels stored by older versions to the current ones.
var legacyFuentes = map[string]string{
	"patrocinio": "patrocinios",
}

// NormalizeFuente lowercases, trims and maps legacy labels.
func NormalizeFuente(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	if cur, ok := legacyFuentes[f]; ok {
		return cur
	}
	return f
}

func ValidFuente(f string) bool {
	f = NormalizeFuente(f)
	for _, v := range FuentesIngreso {
		if v == f {
			return true
		}
	}
	return false
}
