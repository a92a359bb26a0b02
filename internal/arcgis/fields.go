package arcgis

import "strings"

// SelectField returns the first available field whose lowercase form
// exactly matches a candidate, walking candidates in order. It returns
// fallback when nothing matches. Pure function, no I/O.
func SelectField(available, candidates []string, fallback string) string {
	for _, cand := range candidates {
		want := strings.ToLower(cand)
		for _, field := range available {
			if strings.ToLower(field) == want {
				return field
			}
		}
	}

	return fallback
}
