package ingest

import "strings"

// SplitRow splits one line of delimited text into trimmed fields.
//
// A double quote toggles quoted mode unless the field so far ends with a
// backslash, in which case it is kept literally (backslash included).
// Separators inside quotes are part of the field. Toggling quotes are
// dropped. A final field that is empty before trimming is dropped, so
// "a,b," yields two fields.
func SplitRow(line string, sep rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"' && !strings.HasSuffix(field.String(), `\`):
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}

	if field.Len() > 0 {
		fields = append(fields, strings.TrimSpace(field.String()))
	}

	return fields
}

// NormalizePrice turns "$1,099.00", "1,099.00" or " $5 " into "$1099.00" /
// "$5". The value is not parsed; anything else passes through behind a "$".
func NormalizePrice(raw string) string {
	price := strings.TrimSpace(raw)
	price = strings.TrimPrefix(price, "$")
	price = strings.ReplaceAll(price, ",", "")

	return "$" + price
}
