package review

// Category weights are fractions of the overall score; subcategory weights are
// fractions of their category. Both levels sum to 1, so renormalizing over a
// populated subset is always well defined. The historical "absolute points out
// of 100" convention (sanitation 10, maintenance 5, ...) is converted here
// once and nowhere else.

type SubcategoryWeight struct {
	Key    string
	Weight float64
}

type CategoryWeight struct {
	Key           string
	Weight        float64
	Subcategories []SubcategoryWeight
}

// DefaultFallbackWeight applies to categories outside the known taxonomy so
// that reviews created against an extended taxonomy degrade instead of
// failing.
const DefaultFallbackWeight = 0.10

var Categories = []CategoryWeight{
	{
		Key:    CategoryOperational,
		Weight: 0.35,
		Subcategories: []SubcategoryWeight{
			{Key: SubSanitation, Weight: 10.0 / 35.0},
			{Key: SubInventory, Weight: 10.0 / 35.0},
			{Key: SubQuality, Weight: 10.0 / 35.0},
			{Key: SubMaintenance, Weight: 5.0 / 35.0},
		},
	},
	{
		Key:    CategoryPeople,
		Weight: 0.30,
		Subcategories: []SubcategoryWeight{
			{Key: SubRecruitment, Weight: 10.0 / 30.0},
			{Key: SubScheduling, Weight: 10.0 / 30.0},
			{Key: SubRetention, Weight: 10.0 / 30.0},
		},
	},
	{
		Key:    CategoryBusiness,
		Weight: 0.25,
		Subcategories: []SubcategoryWeight{
			{Key: SubSales, Weight: 15.0 / 25.0},
			{Key: SubEfficiency, Weight: 10.0 / 25.0},
		},
	},
	{
		Key:    CategoryLeadership,
		Weight: 0.10,
		Subcategories: []SubcategoryWeight{
			{Key: SubLeadership, Weight: 1.0},
		},
	},
}

// CategoryWeightFor returns the overall-share weight for a category key,
// falling back for unknown categories.
func CategoryWeightFor(key string) float64 {
	for _, cat := range Categories {
		if cat.Key == key {
			return cat.Weight
		}
	}
	return DefaultFallbackWeight
}

// IsKnownSubcategory reports whether key belongs to the scoring taxonomy.
func IsKnownSubcategory(key string) bool {
	for _, cat := range Categories {
		for _, sub := range cat.Subcategories {
			if sub.Key == key {
				return true
			}
		}
	}
	return false
}
