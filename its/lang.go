package its

import "strings"

// FormatBCP47 normalizes a catalog locale code (as commonly stored by
// message catalogs, e.g. "es_ES" or "pt_BR") into its BCP-47 form
// ("es-ES", "pt-BR") for use as an xml:lang value (spec.md §6). No
// library in the example corpus this module is built from offers
// locale-tag normalization, so this is a small hand-rolled helper
// rather than an adopted dependency: the transform needed is limited
// to underscore-to-hyphen and subtag casing, well short of justifying
// a full BCP-47 parser.
func FormatBCP47(locale string) string {
	parts := strings.FieldsFunc(locale, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		switch {
		case i == 0:
			parts[i] = strings.ToLower(p)
		case len(p) == 2:
			parts[i] = strings.ToUpper(p)
		case len(p) == 4:
			parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
		default:
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, "-")
}
