package listedit

import "ai-shopping-list/internal/api"

// BuildUpdateRequest serializes the whole working copy for a replace-all
// PUT. Persisted rows carry their id; pending rows are sent without one and
// the server assigns ids. Title and store are always sent so clearing them
// is persisted; the planned date is sent only when set.
func BuildUpdateRequest(l List) api.UpdateShoppingListRequest {
	title := l.Title
	store := l.StoreName
	req := api.UpdateShoppingListRequest{
		Title:     &title,
		StoreName: &store,
		Products:  make([]api.UpdateProductRequest, 0, len(l.Products)),
	}
	if l.PlannedDate != "" {
		date := l.PlannedDate
		req.PlannedShoppingDate = &date
	}
	for _, p := range l.Products {
		item := api.UpdateProductRequest{Name: p.Name, Quantity: p.Quantity}
		if id, ok := p.Ref.ID(); ok {
			item.ID = &id
		}
		req.Products = append(req.Products, item)
	}
	return req
}
