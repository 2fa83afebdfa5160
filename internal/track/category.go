package track

import "strings"

// Category is the closed set of genres a track can belong to.
type Category string

const (
	CategoryPop        Category = "pop"
	CategoryRock       Category = "rock"
	CategoryRap        Category = "rap"
	CategoryJazz       Category = "jazz"
	CategoryClassical  Category = "classical"
	CategoryElectronic Category = "electronic"
	CategoryOther      Category = "other"

	// CategoryAll is the filter sentinel meaning "no category filter".
	// It is never a valid track category.
	CategoryAll Category = "all"
)

// Categories lists the valid categories in display order.
var Categories = []Category{
	CategoryPop,
	CategoryRock,
	CategoryRap,
	CategoryJazz,
	CategoryClassical,
	CategoryElectronic,
	CategoryOther,
}

// Valid reports whether c is one of the closed set of categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes s and reports whether it names a category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryAll {
		return CategoryAll, true
	}
	return c, c.Valid()
}

// CategoryOrOther returns the category named by s, or CategoryOther when s is
// not recognized.
func CategoryOrOther(s string) Category {
	c, ok := ParseCategory(s)
	if !ok || c == CategoryAll {
		return CategoryOther
	}
	return c
}
