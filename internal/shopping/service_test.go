package shopping

import (
	"context"
	"errors"
	"testing"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	calls      int
	lastQuery  api.ListQuery
	lastCreate api.CreateShoppingListRequest
	lastGen    api.GenerateShoppingListRequest
	lastUpdate api.UpdateShoppingListRequest
	updateOK   bool
	deleteOK   bool
	err        error
}

func (m *MockClient) GetShoppingLists(_ context.Context, q api.ListQuery) (*api.ShoppingListsResponse, error) {
	m.calls++
	m.lastQuery = q
	return &api.ShoppingListsResponse{}, m.err
}

func (m *MockClient) GetShoppingListByID(_ context.Context, id int64) (*api.ShoppingListDetailResponse, error) {
	m.calls++
	return &api.ShoppingListDetailResponse{ID: id}, m.err
}

func (m *MockClient) CreateShoppingList(_ context.Context, req api.CreateShoppingListRequest) (*api.ShoppingListDetailResponse, error) {
	m.calls++
	m.lastCreate = req
	return &api.ShoppingListDetailResponse{ID: 1}, m.err
}

func (m *MockClient) UpdateShoppingList(_ context.Context, _ int64, req api.UpdateShoppingListRequest) (bool, error) {
	m.calls++
	m.lastUpdate = req
	return m.updateOK, m.err
}

func (m *MockClient) DeleteShoppingList(_ context.Context, _ int64) (bool, error) {
	m.calls++
	return m.deleteOK, m.err
}

func (m *MockClient) GenerateShoppingList(_ context.Context, req api.GenerateShoppingListRequest) (*api.ShoppingListDetailResponse, error) {
	m.calls++
	m.lastGen = req
	return &api.ShoppingListDetailResponse{ID: 2}, m.err
}

func TestListDefaults(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client, nil)

	_, err := svc.List(context.Background(), api.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, api.ListQuery{Page: 1, PageSize: 10, Sort: "newest"}, client.lastQuery)

	_, err = svc.List(context.Background(), api.ListQuery{Sort: "price"})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls, "invalid query must not reach the network")
}

func TestGetRequiresID(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client, nil)

	_, err := svc.Get(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrMissingListID))
	assert.Equal(t, "List ID is not provided.", err.Error())
	assert.Equal(t, 0, client.calls)
}

func TestCreateNormalizesInput(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client, nil)

	_, err := svc.Create(context.Background(), api.CreateShoppingListRequest{
		Title:               "  Weekly ",
		StoreName:           "   ",
		PlannedShoppingDate: "2025-05-16",
		Products:            []api.ProductRequest{{Name: " Milk ", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly", client.lastCreate.Title)
	assert.Equal(t, "", client.lastCreate.StoreName)
	assert.Equal(t, "2025-05-16T00:00:00.000Z", client.lastCreate.PlannedShoppingDate)
	assert.Equal(t, "Milk", client.lastCreate.Products[0].Name)
}

func TestCreateRejectsBadDate(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client, nil)

	_, err := svc.Create(context.Background(), api.CreateShoppingListRequest{PlannedShoppingDate: "tomorrow"})
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid date", verr.FieldErrors()["plannedShoppingDate"])
	assert.Equal(t, 0, client.calls)
}

func TestGenerateOmitsEmptyFields(t *testing.T) {
	client := &MockClient{}
	svc := NewService(client, nil)

	_, err := svc.Generate(context.Background(), api.GenerateShoppingListRequest{Title: " ", StoreName: " Lidl "})
	require.NoError(t, err)
	assert.Equal(t, api.GenerateShoppingListRequest{StoreName: "Lidl"}, client.lastGen)
}

func TestUpdateAndDelete(t *testing.T) {
	client := &MockClient{updateOK: true, deleteOK: true}
	svc := NewService(client, nil)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, 3, api.UpdateShoppingListRequest{
		Products: []api.UpdateProductRequest{{Name: "Milk", Quantity: 1}},
	}))
	require.NoError(t, svc.Delete(ctx, 3))

	err := svc.Update(ctx, 3, api.UpdateShoppingListRequest{
		Products: []api.UpdateProductRequest{{Name: "", Quantity: 1}},
	})
	_, ok := validation.As(err)
	assert.True(t, ok)

	client.deleteOK = false
	assert.Error(t, svc.Delete(ctx, 3))
	assert.ErrorIs(t, svc.Delete(ctx, 0), ErrMissingListID)
}

func TestDates(t *testing.T) {
	got, err := FormatPlannedDate("2025-05-16T22:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-16T20:30:00.000Z", got)

	got, err = FormatPlannedDate("")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, "2025-05-16", DisplayDate("2025-05-16T10:00:00.000Z"))
	assert.Equal(t, "", DisplayDate(""))
	assert.Equal(t, "soon", DisplayDate("soon"))
}
