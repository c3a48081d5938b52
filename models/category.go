package models

import "strings"

// Category is the closed set of spending categories.
type Category string

const (
	CategoryFood      Category = "FOOD"
	CategoryTransport Category = "TRANSPORT"
	CategoryDorinte   Category = "DORINTE"
	CategoryApartment Category = "APARTMENT"
	CategoryFarmacy   Category = "FARMACY"
	CategoryOther     Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryDorinte,
	CategoryApartment,
	CategoryFarmacy,
	CategoryOther,
}

// LookupCategory returns the category named s and whether it exists.
func LookupCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// ParseCategory is lenient: unknown or empty names map to CategoryOther.
func ParseCategory(s string) Category {
	if c, ok := LookupCategory(s); ok {
		return c
	}
	return CategoryOther
}
