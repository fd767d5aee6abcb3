// Package supplier reglas de dominio de proveedores.
package supplier

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameKey clave de comparación de un nombre de proveedor: sin espacios sobrantes,
// sin diacríticos y sin distinguir mayúsculas. "ACME S.L." y " acme  s.l. " dan la misma clave.
func NameKey(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return cases.Fold().String(stripped)
}

// CleanName nombre visible: recortado y con espacios internos colapsados.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
