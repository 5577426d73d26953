package devserver

import (
	"context"
	"slices"
	"strings"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/suggest"
)

type staple struct {
	name     string
	perHead  float64
	excluded []string
}

var staples = []staple{
	{name: "Bread", perHead: 0.5, excluded: []string{"gluten-free", "ketogenic", "low-carb", "paleo"}},
	{name: "Milk", perHead: 1, excluded: []string{"vegan", "lactose-free", "paleo"}},
	{name: "Eggs", perHead: 3, excluded: []string{"vegan", "egg-free"}},
	{name: "Apples", perHead: 2},
	{name: "Bananas", perHead: 2, excluded: []string{"ketogenic"}},
	{name: "Rice", perHead: 0.25, excluded: []string{"ketogenic", "low-carb", "paleo"}},
	{name: "Chicken breast", perHead: 0.5, excluded: []string{"vegan", "vegetarian", "pescatarian"}},
	{name: "Tofu", perHead: 0.5, excluded: []string{"soy-free", "paleo"}},
	{name: "Tomatoes", perHead: 1},
	{name: "Cheese", perHead: 0.25, excluded: []string{"vegan", "lactose-free"}},
	{name: "Oat milk", perHead: 0.5, excluded: []string{"gluten-free"}},
	{name: "Spinach", perHead: 0.5},
}

// StapleGenerator builds a list from a fixed set of staples, skipping
// anything the profile's dietary preferences rule out and scaling
// quantities to the household.
type StapleGenerator struct{}

func (StapleGenerator) Generate(_ context.Context, profile *api.UserProfileResponse, _ api.GenerateShoppingListRequest) ([]api.ProductRequest, error) {
	heads := 1
	var prefs []string
	if profile != nil {
		if profile.HouseholdSize != nil && *profile.HouseholdSize > 0 {
			heads = *profile.HouseholdSize
		}
		for _, p := range profile.DietaryPreferences {
			prefs = append(prefs, strings.ToLower(p))
		}
	}

	var out []api.ProductRequest
	for _, s := range staples {
		if slices.ContainsFunc(s.excluded, func(e string) bool { return slices.Contains(prefs, e) }) {
			continue
		}
		qty := int(s.perHead*float64(heads) + 0.5)
		if qty < 1 {
			qty = 1
		}
		out = append(out, api.ProductRequest{Name: s.name, Quantity: qty})
	}
	return out, nil
}

// SuggestGenerator delegates generation to a language model.
type SuggestGenerator struct {
	Suggester *suggest.Suggester
	Limit     int
}

func (g SuggestGenerator) Generate(ctx context.Context, profile *api.UserProfileResponse, req api.GenerateShoppingListRequest) ([]api.ProductRequest, error) {
	sreq := suggest.Request{
		Title:     req.Title,
		StoreName: req.StoreName,
		Limit:     g.Limit,
	}
	if profile != nil {
		if profile.HouseholdSize != nil {
			sreq.HouseholdSize = *profile.HouseholdSize
		}
		sreq.Ages = profile.Ages
		sreq.DietaryPreferences = profile.DietaryPreferences
	}
	res, err := g.Suggester.Suggest(ctx, sreq)
	if err != nil {
		return nil, err
	}
	out := make([]api.ProductRequest, 0, len(res.Products))
	for _, p := range res.Products {
		out = append(out, api.ProductRequest{Name: p.Name, Quantity: p.Quantity})
	}
	return out, nil
}
