package listedit

import (
	"errors"
	"testing"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() *api.ShoppingListDetailResponse {
	return &api.ShoppingListDetailResponse{
		ID:                  7,
		Title:               "Weekend",
		StoreName:           "Corner shop",
		PlannedShoppingDate: "2025-05-16T00:00:00.000Z",
		Source:              api.SourceManual,
		Products: []api.ProductInListResponse{
			{ID: 5, Name: "Milk", Quantity: 2, StatusID: api.StatusPending},
			{ID: 6, Name: "Bread", Quantity: 1, StatusID: api.StatusInCart, Status: "In cart"},
		},
	}
}

func TestFromResponse(t *testing.T) {
	l := FromResponse(sampleResponse())

	assert.Equal(t, int64(7), l.ID)
	assert.Equal(t, "Weekend", l.Title)
	require.Len(t, l.Products, 2)
	assert.Equal(t, Persisted(5), l.Products[0].Ref)
	assert.Equal(t, "Pending", l.Products[0].StatusLabel)
	assert.Equal(t, "In cart", l.Products[1].StatusLabel)
}

func TestListMutationsAreImmutable(t *testing.T) {
	base := FromResponse(sampleResponse())

	renamed, err := base.RenameProduct(Persisted(5), "  Oat milk ")
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", renamed.Products[0].Name)
	assert.Equal(t, "Milk", base.Products[0].Name)

	deleted, err := base.DeleteProduct(Persisted(5))
	require.NoError(t, err)
	assert.Len(t, deleted.Products, 1)
	assert.Len(t, base.Products, 2)

	titled := base.WithTitle("Other")
	assert.Equal(t, "Weekend", base.Title)
	assert.Equal(t, "Other", titled.Title)
}

func TestUpdateProductValidation(t *testing.T) {
	base := FromResponse(sampleResponse())

	t.Run("BlankName", func(t *testing.T) {
		_, err := base.RenameProduct(Persisted(5), "   ")
		verr, ok := validation.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"Product name is required"}, verr.Field("name"))
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		_, err := base.RequantifyProduct(Persisted(5), 0)
		verr, ok := validation.As(err)
		require.True(t, ok)
		assert.Equal(t, []string{"Quantity must be greater than 0"}, verr.Field("quantity"))
	})

	t.Run("UnknownRef", func(t *testing.T) {
		_, err := base.RenameProduct(Persisted(99), "x")
		assert.True(t, errors.Is(err, ErrProductNotFound))
	})
}

func TestAddProduct(t *testing.T) {
	base := FromResponse(sampleResponse())
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	one, ref1, err := base.AddProduct("Eggs", 12, now)
	require.NoError(t, err)
	two, ref2, err := one.AddProduct("Eggs", 12, now)
	require.NoError(t, err)

	assert.True(t, ref1.IsPending())
	assert.NotEqual(t, ref1, ref2)
	assert.NotEqual(t, Persisted(5), ref1)
	assert.Equal(t, 2, two.PendingCount())

	p, ok := two.Find(ref1)
	require.True(t, ok)
	assert.Equal(t, api.StatusPending, p.Status)
	assert.Equal(t, "2025-05-01T12:00:00Z", p.CreatedAt)

	_, _, err = base.AddProduct("", 1, now)
	assert.Error(t, err)
}
