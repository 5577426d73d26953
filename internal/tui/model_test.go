package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/listedit"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mu        sync.Mutex
	list      *api.ShoppingListDetailResponse
	nextID    int64
	updateErr error
	updates   []api.UpdateShoppingListRequest
	deleted   bool
}

func (m *MockService) Get(_ context.Context, id int64) (*api.ShoppingListDetailResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.list == nil || m.list.ID != id || m.deleted {
		return nil, &api.APIError{Status: http.StatusNotFound, Message: "Not found"}
	}
	cp := *m.list
	cp.Products = append([]api.ProductInListResponse(nil), m.list.Products...)
	return &cp, nil
}

func (m *MockService) Update(_ context.Context, _ int64, req api.UpdateShoppingListRequest) error {
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
	m.deleted = true
	return nil
}

func newModel(t *testing.T) (Model, *MockService) {
	t.Helper()
	svc := &MockService{
		nextID: 100,
		list: &api.ShoppingListDetailResponse{
			ID:        7,
			Title:     "Weekend",
			StoreName: "Corner shop",
			Products: []api.ProductInListResponse{
				{ID: 5, Name: "Milk", Quantity: 2, StatusID: api.StatusPending},
				{ID: 6, Name: "Bread", Quantity: 1, StatusID: api.StatusInCart},
			},
		},
	}
	editor := listedit.NewEditor(svc)
	require.NoError(t, editor.Load(context.Background(), 7))
	return New(context.Background(), editor), svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds the keys in order and returns the model and the last command.
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestCursorMovement(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "down", "down", "down")
	assert.Equal(t, 1, m.cursor)

	m, _ = press(m, "k", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestRenameAndQuantity(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "r")
	require.Equal(t, modeInput, m.mode)
	assert.Equal(t, "Milk", m.input.Value())

	m, _ = press(m, "ctrl+u", "Oat milk", "enter")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "Oat milk", m.editor.Working().Products[0].Name)

	m, _ = press(m, "u", "ctrl+u", "0", "enter")
	assert.Equal(t, "Quantity must be greater than 0", m.err)
	assert.Equal(t, 2, m.editor.Working().Products[0].Quantity)

	m, _ = press(m, "u", "ctrl+u", "3", "enter")
	assert.Empty(t, m.err)
	assert.Equal(t, 3, m.editor.Working().Products[0].Quantity)
	assert.True(t, m.editor.HasUnsavedChanges())
}

func TestEscCancelsInput(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "t", "ctrl+u", "Other", "esc")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "Weekend", m.editor.Working().Title)
}

func TestAddProductAndSave(t *testing.T) {
	m, svc := newModel(t)

	m, _ = press(m, "a", "Eggs", "enter")
	require.Equal(t, fieldAddQuantity, m.field)
	assert.Equal(t, "1", m.input.Value())

	m, _ = press(m, "ctrl+u", "12", "enter")
	working := m.editor.Working()
	require.Len(t, working.Products, 3)
	assert.True(t, working.Products[2].Ref.IsPending())
	assert.Equal(t, 2, m.cursor)
	assert.Contains(t, m.View(), "new")

	m, cmd := press(m, "w")
	assert.True(t, m.busy)
	m = run(t, m, cmd)

	assert.False(t, m.busy)
	assert.Equal(t, "Saved.", m.status)
	assert.False(t, m.editor.HasUnsavedChanges())
	require.Len(t, svc.updates, 1)
	assert.Equal(t, listedit.Persisted(101), m.editor.Working().Products[2].Ref)
}

func TestSaveWithoutChanges(t *testing.T) {
	m, svc := newModel(t)

	m, cmd := press(m, "w")
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to save.", m.status)
	assert.Empty(t, svc.updates)
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	m, svc := newModel(t)
	svc.updateErr = errors.New("connection refused")

	m, _ = press(m, "d")
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)

	assert.Contains(t, m.err, "connection refused")
	assert.True(t, m.editor.HasUnsavedChanges())
	assert.Len(t, m.editor.Working().Products, 1)
}

func TestLeaveGuard(t *testing.T) {
	t.Run("clean list leaves at once", func(t *testing.T) {
		m, _ := newModel(t)
		_, cmd := press(m, "esc")
		assert.True(t, isQuit(cmd))
	})

	t.Run("unsaved changes ask first", func(t *testing.T) {
		m, _ := newModel(t)
		m, _ = press(m, "d", "q")
		assert.Equal(t, modeConfirmLeave, m.mode)
		assert.True(t, m.editor.LeavePending())
		assert.Contains(t, m.View(), "Leave anyway?")

		m, cmd := press(m, "n")
		assert.False(t, isQuit(cmd))
		assert.Equal(t, modeBrowse, m.mode)
		assert.True(t, m.editor.HasUnsavedChanges())

		m, _ = press(m, "b")
		_, cmd = press(m, "y")
		assert.True(t, isQuit(cmd))
		assert.False(t, m.editor.HasUnsavedChanges())
	})
}

func TestDiscard(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "down", "d")
	assert.Len(t, m.editor.Working().Products, 1)
	assert.Equal(t, 0, m.cursor)

	m, _ = press(m, "x")
	assert.Len(t, m.editor.Working().Products, 2)
	assert.False(t, m.editor.HasUnsavedChanges())
}

func TestDeleteList(t *testing.T) {
	m, svc := newModel(t)

	m, _ = press(m, "D")
	require.Equal(t, modeConfirmDelete, m.mode)

	m, cmd := press(m, "y")
	require.NotNil(t, cmd)
	next, quit := m.Update(cmd())
	m = next.(Model)

	assert.True(t, m.Deleted())
	assert.True(t, svc.deleted)
	assert.True(t, isQuit(quit))
}

func TestInvalidDate(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "p", "ctrl+u", "someday", "enter")
	assert.Equal(t, "Invalid date", m.err)

	m, _ = press(m, "p", "ctrl+u", "2025-06-01", "enter")
	assert.Empty(t, m.err)
	assert.True(t, strings.HasPrefix(m.editor.Working().PlannedDate, "2025-06-01"))
}

func TestView(t *testing.T) {
	m, _ := newModel(t)

	view := m.View()
	assert.Contains(t, view, "Weekend")
	assert.Contains(t, view, "Store: Corner shop")
	assert.Contains(t, view, "Milk")
	assert.NotContains(t, view, "unsaved")

	m, _ = press(m, "d")
	assert.Contains(t, m.View(), "unsaved")
}
