package cities

import (
	"errors"
	"fmt"
	"strings"
)

// City is one row of the dataset.
type City struct {
	Name       string `json:"city"`
	AdminName  string `json:"admin_name"`
	Population int64  `json:"population"`
}

// SortKey selects the City field used for ordering.
type SortKey int

const (
	SortByCity SortKey = iota
	SortByAdminName
	SortByPopulation
)

// Direction is the order applied on top of a SortKey.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

var (
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
)

// SortKeys lists the keys in column order.
var SortKeys = []SortKey{SortByCity, SortByAdminName, SortByPopulation}

func (k SortKey) String() string {
	switch k {
	case SortByCity:
		return "city"
	case SortByAdminName:
		return "admin_name"
	case SortByPopulation:
		return "population"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}

// ParseSortKey accepts the dataset column names.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.TrimSpace(raw) {
	case "city":
		return SortByCity, nil
	case "admin_name":
		return SortByAdminName, nil
	case "population":
		return SortByPopulation, nil
	default:
		return SortByCity, fmt.Errorf("%w: %q", ErrUnknownSortKey, raw)
	}
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("%w: %q", ErrUnknownDirection, raw)
	}
}
