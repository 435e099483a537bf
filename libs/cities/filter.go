package cities

import "strings"

// Filter returns the cities whose name contains keyword, case-insensitively.
// The keyword is trimmed first; a blank keyword keeps every city. The input
// slice is never modified.
func Filter(list []City, keyword string) []City {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := make([]City, 0, len(list))
	if needle == "" {
		return append(out, list...)
	}
	for _, city := range list {
		if strings.Contains(strings.ToLower(city.Name), needle) {
			out = append(out, city)
		}
	}
	return out
}
