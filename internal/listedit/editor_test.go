package listedit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
}

// MockService keeps one list and applies updates with replace-all
// semantics, assigning ids to rows sent without one.
type MockService struct {
	mu        sync.Mutex
	list      *api.ShoppingListDetailResponse
	nextID    int64
	getErr    error
	updateErr error
	deleteErr error
	updates   []api.UpdateShoppingListRequest
	getCalls  int
	block     chan struct{}
}

func newMockService() *MockService {
	return &MockService{list: sampleResponse(), nextID: 100}
}

func (m *MockService) Get(_ context.Context, id int64) (*api.ShoppingListDetailResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.list == nil || m.list.ID != id {
		return nil, &api.APIError{Status: http.StatusNotFound, Message: "Not found"}
	}
	cp := *m.list
	cp.Products = append([]api.ProductInListResponse(nil), m.list.Products...)
	return &cp, nil
}

func (m *MockService) Update(_ context.Context, _ int64, req api.UpdateShoppingListRequest) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, req)
	if m.updateErr != nil {
		return m.updateErr
	}
	if req.Title != nil {
		m.list.Title = *req.Title
	}
	if req.StoreName != nil {
		m.list.StoreName = *req.StoreName
	}
	if req.PlannedShoppingDate != nil {
		m.list.PlannedShoppingDate = *req.PlannedShoppingDate
	}
	products := make([]api.ProductInListResponse, 0, len(req.Products))
	for _, p := range req.Products {
		row := api.ProductInListResponse{Name: p.Name, Quantity: p.Quantity, StatusID: api.StatusPending}
		if p.ID != nil {
			row.ID = *p.ID
		} else {
			m.nextID++
			row.ID = m.nextID
		}
		products = append(products, row)
	}
	m.list.Products = products
	return nil
}

func (m *MockService) Delete(_ context.Context, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.list = nil
	return nil
}

func loadedEditor(t *testing.T, svc *MockService, opts ...EditorOption) *Editor {
	t.Helper()
	opts = append([]EditorOption{WithClock(fixedNow)}, opts...)
	e := NewEditor(svc, opts...)
	require.NoError(t, e.Load(context.Background(), 7))
	return e
}

func TestEditorLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingID", func(t *testing.T) {
		e := NewEditor(newMockService())
		err := e.Load(ctx, 0)
		assert.True(t, errors.Is(err, shopping.ErrMissingListID))
	})

	t.Run("NotFound", func(t *testing.T) {
		e := NewEditor(newMockService())
		err := e.Load(ctx, 99)
		assert.True(t, errors.Is(err, ErrListNotFound))
		assert.True(t, api.IsNotFound(err))
		assert.False(t, e.Loaded())
	})

	t.Run("Unauthorized", func(t *testing.T) {
		svc := newMockService()
		svc.getErr = &api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
		var handled bool
		e := NewEditor(svc, WithUnauthorizedHandler(func(_ context.Context, err error) bool {
			handled = api.IsUnauthorized(err)
			return handled
		}))
		assert.Error(t, e.Load(ctx, 7))
		assert.True(t, handled)
	})

	t.Run("Success", func(t *testing.T) {
		e := loadedEditor(t, newMockService())
		assert.Equal(t, int64(7), e.ListID())
		assert.False(t, e.HasUnsavedChanges())
		assert.Len(t, e.Working().Products, 2)
	})
}

func TestEditorMutationsRequireLoad(t *testing.T) {
	e := NewEditor(newMockService())
	assert.ErrorIs(t, e.SetTitle("x"), ErrNotLoaded)
	_, err := e.AddProduct("Eggs", 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, e.Save(context.Background()), ErrNotLoaded)
}

func TestEditorSave(t *testing.T) {
	ctx := context.Background()
	svc := newMockService()
	e := loadedEditor(t, svc)

	require.NoError(t, e.RenameProduct(Persisted(5), "Oat milk"))
	require.NoError(t, e.DeleteProduct(Persisted(6)))
	ref, err := e.AddProduct("Eggs", 6)
	require.NoError(t, err)
	assert.True(t, ref.IsPending())
	require.NoError(t, e.SetPlannedDate("2025-05-20"))
	assert.True(t, e.HasUnsavedChanges())

	require.NoError(t, e.Save(ctx))

	require.Len(t, svc.updates, 1)
	sent := svc.updates[0]
	require.Len(t, sent.Products, 2)
	require.NotNil(t, sent.Products[0].ID)
	assert.Equal(t, int64(5), *sent.Products[0].ID)
	assert.Nil(t, sent.Products[1].ID)
	assert.Equal(t, "2025-05-20T00:00:00.000Z", *sent.PlannedShoppingDate)

	assert.False(t, e.HasUnsavedChanges())
	working := e.Working()
	assert.Equal(t, 0, working.PendingCount())
	assert.Equal(t, Persisted(101), working.Products[1].Ref)
}

func TestEditorSaveFailureKeepsWorkingCopy(t *testing.T) {
	svc := newMockService()
	svc.updateErr = &api.APIError{Status: http.StatusBadRequest, Message: "Bad request"}
	e := loadedEditor(t, svc)

	require.NoError(t, e.SetTitle("Sunday"))
	err := e.Save(context.Background())
	require.Error(t, err)

	assert.Equal(t, "Sunday", e.Working().Title)
	assert.Equal(t, "Weekend", e.Snapshot().Title)
	assert.True(t, e.HasUnsavedChanges())
	assert.False(t, e.Saving())
}

func TestEditorSaveSingleFlight(t *testing.T) {
	svc := newMockService()
	svc.block = make(chan struct{})
	e := loadedEditor(t, svc)
	require.NoError(t, e.SetTitle("Sunday"))

	done := make(chan error, 1)
	go func() { done <- e.Save(context.Background()) }()

	require.Eventually(t, e.Saving, time.Second, time.Millisecond)
	assert.ErrorIs(t, e.Save(context.Background()), ErrSaveInProgress)
	assert.ErrorIs(t, e.SetTitle("Other"), ErrSaveInProgress)

	close(svc.block)
	require.NoError(t, <-done)
	assert.Len(t, svc.updates, 1)
	assert.Equal(t, "Sunday", e.Snapshot().Title)
}

func TestEditorSaveValidation(t *testing.T) {
	svc := newMockService()
	e := loadedEditor(t, svc)

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, e.SetTitle(string(long)))
	assert.Error(t, e.SetPlannedDate("next week"))
	assert.Empty(t, svc.updates)
}

func TestEditorLeaveGuard(t *testing.T) {
	e := loadedEditor(t, newMockService())

	assert.True(t, e.RequestLeave(), "clean editor leaves immediately")

	require.NoError(t, e.SetStoreName("Market"))
	assert.False(t, e.RequestLeave())
	assert.True(t, e.LeavePending())

	e.CancelLeave()
	assert.False(t, e.LeavePending())
	assert.Equal(t, "Market", e.Working().StoreName)

	assert.False(t, e.RequestLeave())
	e.ConfirmLeave()
	assert.False(t, e.HasUnsavedChanges())
	assert.Equal(t, "Corner shop", e.Working().StoreName)
}

func TestEditorDiscardAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newMockService()
	e := loadedEditor(t, svc)

	require.NoError(t, e.SetQuantity(Persisted(5), 9))
	e.Discard()
	assert.False(t, e.HasUnsavedChanges())

	require.NoError(t, e.Delete(ctx))
	assert.False(t, e.Loaded())
	assert.ErrorIs(t, e.Load(ctx, 7), ErrListNotFound)
}

func TestEditorReloadFailureAfterSave(t *testing.T) {
	svc := newMockService()
	e := loadedEditor(t, svc)
	require.NoError(t, e.SetTitle("Sunday"))

	svc.mu.Lock()
	svc.getErr = errors.New("connection reset")
	svc.mu.Unlock()

	err := e.Save(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saved but reload failed")
	assert.Equal(t, "Weekend", e.Snapshot().Title)
	assert.Equal(t, "Sunday", e.Working().Title)
}
