package core

// Category is one of the fixed expense category labels.
type Category string

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Shopping       Category = "Shopping"
	Other          Category = "Other"
)

// Categories lists all labels in display order.
var Categories = []Category{
	Food,
	Transportation,
	Housing,
	Utilities,
	Entertainment,
	Healthcare,
	Shopping,
	Other,
}

func (c Category) String() string { return string(c) }

// Valid reports whether c is one of the fixed labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryAmount represents an amount aggregated by category label.
type CategoryAmount struct {
	Category Category
	Amount   Money
}
