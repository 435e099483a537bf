package cities

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders a and b by the field selected by key, using natural order:
// byte-wise for strings, numeric for population.
func Compare(a, b City, key SortKey) int {
	switch key {
	case SortByAdminName:
		return strings.Compare(a.AdminName, b.AdminName)
	case SortByPopulation:
		return cmp.Compare(a.Population, b.Population)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

// Sort returns a sorted copy of list. Ascending order is stable; descending
// order is the exact reverse of the ascending result, so ties come out in
// reverse input order.
func Sort(list []City, key SortKey, dir Direction) []City {
	out := slices.Clone(list)
	if out == nil {
		out = []City{}
	}
	slices.SortStableFunc(out, func(a, b City) int {
		return Compare(a, b, key)
	})
	if dir == Descending {
		slices.Reverse(out)
	}
	return out
}
