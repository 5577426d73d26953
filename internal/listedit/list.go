// Package listedit holds the editable model of one shopping list: a server
// snapshot, a working copy the user mutates, change detection between the
// two and the replace-all save payload.
package listedit

import (
	"errors"
	"slices"
	"strings"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"
)

// ErrProductNotFound is returned when a ref matches no row of the list.
var ErrProductNotFound = errors.New("product not found in list")

type Product struct {
	Ref         ProductRef
	Name        string
	Quantity    int
	Status      api.ProductStatus
	StatusLabel string
	CreatedAt   string
}

// List is a value type; every mutation returns a new List and leaves the
// receiver untouched.
type List struct {
	ID          int64
	Title       string
	StoreName   string
	PlannedDate string
	CreatedAt   string
	UpdatedAt   string
	Source      string
	ShopName    string
	Products    []Product
}

// FromResponse builds a List from a list-details response.
func FromResponse(resp *api.ShoppingListDetailResponse) List {
	l := List{
		ID:          resp.ID,
		Title:       resp.Title,
		StoreName:   resp.StoreName,
		PlannedDate: resp.PlannedShoppingDate,
		CreatedAt:   resp.CreatedAt,
		UpdatedAt:   resp.UpdatedAt,
		Source:      resp.Source,
		ShopName:    resp.ShopName,
		Products:    make([]Product, 0, len(resp.Products)),
	}
	for _, p := range resp.Products {
		label := p.Status
		if label == "" {
			label = p.StatusID.String()
		}
		l.Products = append(l.Products, Product{
			Ref:         Persisted(p.ID),
			Name:        p.Name,
			Quantity:    p.Quantity,
			Status:      p.StatusID,
			StatusLabel: label,
			CreatedAt:   p.CreatedAt,
		})
	}
	return l
}

// Clone returns a deep copy.
func (l List) Clone() List {
	l.Products = slices.Clone(l.Products)
	return l
}

// Index returns the position of ref, or -1.
func (l List) Index(ref ProductRef) int {
	return slices.IndexFunc(l.Products, func(p Product) bool { return p.Ref == ref })
}

func (l List) Find(ref ProductRef) (Product, bool) {
	i := l.Index(ref)
	if i < 0 {
		return Product{}, false
	}
	return l.Products[i], true
}

// PendingCount returns how many rows have not been saved yet.
func (l List) PendingCount() int {
	n := 0
	for _, p := range l.Products {
		if p.Ref.IsPending() {
			n++
		}
	}
	return n
}

func (l List) WithTitle(title string) List {
	l = l.Clone()
	l.Title = title
	return l
}

func (l List) WithStoreName(store string) List {
	l = l.Clone()
	l.StoreName = store
	return l
}

func (l List) WithPlannedDate(date string) List {
	l = l.Clone()
	l.PlannedDate = date
	return l
}

// UpdateProduct sets name and quantity of the row identified by ref.
func (l List) UpdateProduct(ref ProductRef, name string, quantity int) (List, error) {
	i := l.Index(ref)
	if i < 0 {
		return l, ErrProductNotFound
	}
	name = strings.TrimSpace(name)
	if err := validation.ValidateProduct(api.ProductRequest{Name: name, Quantity: quantity}); err != nil {
		return l, err
	}
	out := l.Clone()
	out.Products[i].Name = name
	out.Products[i].Quantity = quantity
	return out, nil
}

func (l List) RenameProduct(ref ProductRef, name string) (List, error) {
	p, ok := l.Find(ref)
	if !ok {
		return l, ErrProductNotFound
	}
	return l.UpdateProduct(ref, name, p.Quantity)
}

func (l List) RequantifyProduct(ref ProductRef, quantity int) (List, error) {
	p, ok := l.Find(ref)
	if !ok {
		return l, ErrProductNotFound
	}
	return l.UpdateProduct(ref, p.Name, quantity)
}

func (l List) DeleteProduct(ref ProductRef) (List, error) {
	i := l.Index(ref)
	if i < 0 {
		return l, ErrProductNotFound
	}
	out := l.Clone()
	out.Products = slices.Delete(out.Products, i, i+1)
	return out, nil
}

// AddProduct appends a pending row with status Pending.
func (l List) AddProduct(name string, quantity int, now time.Time) (List, ProductRef, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateProduct(api.ProductRequest{Name: name, Quantity: quantity}); err != nil {
		return l, ProductRef{}, err
	}
	ref := NewPending()
	out := l.Clone()
	out.Products = append(out.Products, Product{
		Ref:         ref,
		Name:        name,
		Quantity:    quantity,
		Status:      api.StatusPending,
		StatusLabel: api.StatusPending.String(),
		CreatedAt:   now.UTC().Format(time.RFC3339),
	})
	return out, ref, nil
}
