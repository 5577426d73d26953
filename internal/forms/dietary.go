package forms

import (
	"strconv"
	"strings"
)

// DietaryPreference is a catalog entry. Custom values entered by the user
// are stored as-is and never looked up here.
type DietaryPreference struct {
	ID    string
	Label string
}

var dietaryCatalog = []DietaryPreference{
	{ID: "vegetarian", Label: "Vegetarian"},
	{ID: "vegan", Label: "Vegan"},
	{ID: "gluten-free", Label: "Gluten-free"},
	{ID: "lactose-free", Label: "Lactose-free"},
	{ID: "ketogenic", Label: "Ketogenic"},
	{ID: "low-fat", Label: "Low-fat"},
	{ID: "low-carb", Label: "Low-carb"},
	{ID: "high-protein", Label: "High-protein"},
	{ID: "paleo", Label: "Paleo"},
	{ID: "pescatarian", Label: "Pescatarian"},
	{ID: "mediterranean", Label: "Mediterranean"},
	{ID: "sugar-free", Label: "Sugar-free"},
	{ID: "soy-free", Label: "Soy-free"},
	{ID: "egg-free", Label: "Egg-free"},
	{ID: "nut-free", Label: "Nut-free"},
	{ID: "kosher", Label: "Kosher"},
	{ID: "halal", Label: "Halal"},
	{ID: "raw", Label: "Raw food"},
	{ID: "dash", Label: "DASH"},
	{ID: "fodmap", Label: "Low FODMAP"},
}

// DietaryCatalog returns the fixed suggestion list.
func DietaryCatalog() []DietaryPreference {
	return append([]DietaryPreference(nil), dietaryCatalog...)
}

// SuggestDietary returns catalog entries whose id or label starts with
// prefix, ignoring case. An empty prefix returns the whole catalog.
func SuggestDietary(prefix string) []DietaryPreference {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return DietaryCatalog()
	}
	var out []DietaryPreference
	for _, d := range dietaryCatalog {
		if strings.HasPrefix(d.ID, prefix) || strings.HasPrefix(strings.ToLower(d.Label), prefix) {
			out = append(out, d)
		}
	}
	return out
}

// DietaryLabel resolves a stored preference to its display label.
func DietaryLabel(value string) string {
	for _, d := range dietaryCatalog {
		if d.ID == value {
			return d.Label
		}
	}
	return value
}

// HouseholdSizeOptions lists the selectable sizes 0 through 10.
func HouseholdSizeOptions() []string {
	out := make([]string, 11)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
