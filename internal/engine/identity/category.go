package identity

import "strings"

// activityFamilies folds place tags and NAF activity codes onto a shared family.
var activityFamilies = map[string]string{
	// tobacco and press
	"tobacco": "tobacco_press", "tobacco_shop": "tobacco_press", "newsagent": "tobacco_press",
	"newsstand": "tobacco_press", "kiosk": "tobacco_press", "lottery": "tobacco_press",
	"drugstore": "tobacco_press", "47.26z": "tobacco_press", "47.62z": "tobacco_press",

	"vape_shop": "vape", "e-cigarette": "vape",

	"convenience": "convenience", "convenience_store": "convenience", "47.11b": "convenience",

	"bakery": "bakery", "10.71c": "bakery", "10.71d": "bakery", "47.24z": "bakery",

	"pharmacy": "pharmacy", "chemist": "pharmacy", "47.73z": "pharmacy",

	"supermarket": "grocery", "grocery": "grocery", "grocery_or_supermarket": "grocery",
	"greengrocer": "grocery", "47.11d": "grocery", "47.11f": "grocery",

	"restaurant": "restaurant", "fast_food": "restaurant", "meal_takeaway": "restaurant",
	"56.10a": "restaurant", "56.10c": "restaurant",

	"cafe": "cafe_bar", "bar": "cafe_bar", "pub": "cafe_bar", "56.30z": "cafe_bar",

	"hair_care": "hair_beauty", "hairdresser": "hair_beauty", "beauty_salon": "hair_beauty",
	"96.02a": "hair_beauty", "96.02b": "hair_beauty",

	"clothing_store": "clothing", "clothes": "clothing", "47.71z": "clothing",
	"florist": "florist", "47.76z": "florist",
	"book_store": "books", "bookstore": "books", "47.61z": "books",
	"bank": "bank", "atm": "bank", "64.19z": "bank",
}

// genericTags carry no activity information.
var genericTags = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"store":             true,
	"shop":              true,
	"premise":           true,
}

// CategoryFamily returns the activity family of a tag or NAF code.
// Unknown tags are their own family.
func CategoryFamily(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if family, ok := activityFamilies[t]; ok {
		return family
	}
	return t
}

// PrimaryCategory is the first tag that says something about the activity.
func PrimaryCategory(tags []string) string {
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t != "" && !genericTags[t] {
			return t
		}
	}
	return ""
}

// Category agreement points.
const CategoryPoints = 20

func scoreCategory(targetActivity string, candidateTags []string) int {
	primary := PrimaryCategory(candidateTags)
	target := CategoryFamily(targetActivity)
	if primary == "" || target == "" {
		return 0
	}
	if CategoryFamily(primary) == target {
		return CategoryPoints
	}
	return 0
}
