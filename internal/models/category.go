package models

// Memo categories a movement may be tagged with. Free-form input from the
// frontend must map to one of these before any operation is applied.
const (
	CategorySalary        = "salary"
	CategoryMeal          = "meal"
	CategoryFixed         = "fixed"
	CategoryUtility       = "utility"
	CategoryCommunication = "communication"
	CategoryTraffic       = "traffic"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"
)

// Categories lists every valid memo category, in display order.
var Categories = []string{
	CategorySalary,
	CategoryMeal,
	CategoryFixed,
	CategoryUtility,
	CategoryCommunication,
	CategoryTraffic,
	CategoryEntertainment,
	CategoryOther,
}

// ValidCategory reports whether s is a known memo category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}
