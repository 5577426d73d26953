package listedit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/validation"

	"go.uber.org/zap"
)

var (
	ErrListNotFound   = errors.New("shopping list not found")
	ErrNotLoaded      = errors.New("no list loaded")
	ErrSaveInProgress = errors.New("a save is already in progress")
)

// Service is the subset of shopping.Service the editor needs.
type Service interface {
	Get(ctx context.Context, id int64) (*api.ShoppingListDetailResponse, error)
	Update(ctx context.Context, id int64, req api.UpdateShoppingListRequest) error
	Delete(ctx context.Context, id int64) error
}

// UnauthorizedFunc is invoked with any error from the service; it returns
// true when it handled an expired session.
type UnauthorizedFunc func(ctx context.Context, err error) bool

type EditorOption func(*Editor)

func WithLogger(l *zap.Logger) EditorOption {
	return func(e *Editor) { e.logger = l }
}

func WithClock(now func() time.Time) EditorOption {
	return func(e *Editor) { e.now = now }
}

func WithUnauthorizedHandler(fn UnauthorizedFunc) EditorOption {
	return func(e *Editor) { e.onUnauthorized = fn }
}

// Editor drives the edit session of one list: load, local mutations, a
// single in-flight save, delete and the leave-with-unsaved-changes guard.
// All methods are safe for concurrent use.
type Editor struct {
	svc            Service
	logger         *zap.Logger
	now            func() time.Time
	onUnauthorized UnauthorizedFunc

	mu           sync.Mutex
	loaded       bool
	snapshot     List
	working      List
	saving       bool
	leavePending bool
}

func NewEditor(svc Service, opts ...EditorOption) *Editor {
	e := &Editor{
		svc:    svc,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the list and resets snapshot and working copy to it.
func (e *Editor) Load(ctx context.Context, id int64) error {
	if id <= 0 {
		return shopping.ErrMissingListID
	}
	resp, err := e.svc.Get(ctx, id)
	if err != nil {
		return e.serviceError(ctx, fmt.Sprintf("failed to load list %d", id), err)
	}

	list := FromResponse(resp)
	e.mu.Lock()
	e.snapshot = list
	e.working = list.Clone()
	e.loaded = true
	e.leavePending = false
	e.mu.Unlock()

	e.logger.Debug("list loaded", zap.Int64("list_id", id), zap.Int("products", len(list.Products)))
	return nil
}

// Reload refetches the current list, discarding local edits.
func (e *Editor) Reload(ctx context.Context) error {
	id := e.ListID()
	if id == 0 {
		return ErrNotLoaded
	}
	return e.Load(ctx, id)
}

func (e *Editor) serviceError(ctx context.Context, msg string, err error) error {
	if e.onUnauthorized != nil {
		e.onUnauthorized(ctx, err)
	}
	if api.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrListNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Editor) ListID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return 0
	}
	return e.snapshot.ID
}

func (e *Editor) Snapshot() List {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

func (e *Editor) Working() List {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Clone()
}

func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

func (e *Editor) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && HasUnsavedChanges(e.snapshot, e.working)
}

func (e *Editor) Changes() Changes {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Diff(e.snapshot, e.working)
}

// mutate applies fn to the working copy unless no list is loaded or a save
// is in flight.
func (e *Editor) mutate(fn func(List) (List, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	if e.saving {
		return ErrSaveInProgress
	}
	next, err := fn(e.working)
	if err != nil {
		return err
	}
	e.working = next
	return nil
}

func (e *Editor) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	req := api.GenerateShoppingListRequest{Title: title}
	if err := validation.ValidateGenerateList(req); err != nil {
		return err
	}
	return e.mutate(func(l List) (List, error) { return l.WithTitle(title), nil })
}

func (e *Editor) SetStoreName(store string) error {
	store = strings.TrimSpace(store)
	return e.mutate(func(l List) (List, error) { return l.WithStoreName(store), nil })
}

// SetPlannedDate accepts a calendar date or timestamp; empty clears it.
func (e *Editor) SetPlannedDate(date string) error {
	iso, err := shopping.FormatPlannedDate(date)
	if err != nil {
		return &validation.Error{Violations: []validation.Violation{{
			Path:     []string{"plannedShoppingDate"},
			Messages: []string{"Invalid date"},
		}}}
	}
	return e.mutate(func(l List) (List, error) { return l.WithPlannedDate(iso), nil })
}

func (e *Editor) RenameProduct(ref ProductRef, name string) error {
	return e.mutate(func(l List) (List, error) { return l.RenameProduct(ref, name) })
}

func (e *Editor) SetQuantity(ref ProductRef, quantity int) error {
	return e.mutate(func(l List) (List, error) { return l.RequantifyProduct(ref, quantity) })
}

func (e *Editor) UpdateProduct(ref ProductRef, name string, quantity int) error {
	return e.mutate(func(l List) (List, error) { return l.UpdateProduct(ref, name, quantity) })
}

func (e *Editor) DeleteProduct(ref ProductRef) error {
	return e.mutate(func(l List) (List, error) { return l.DeleteProduct(ref) })
}

func (e *Editor) AddProduct(name string, quantity int) (ProductRef, error) {
	var ref ProductRef
	err := e.mutate(func(l List) (List, error) {
		next, r, err := l.AddProduct(name, quantity, e.now())
		ref = r
		return next, err
	})
	return ref, err
}

// Discard resets the working copy to the snapshot.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded && !e.saving {
		e.working = e.snapshot.Clone()
	}
}

// Save sends the working copy as a full replacement and, on success,
// refetches the list so pending rows receive their server ids. On failure
// the working copy is kept and nothing is retried.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInProgress
	}
	e.saving = true
	id := e.snapshot.ID
	req := BuildUpdateRequest(e.working)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.saving = false
		e.mu.Unlock()
	}()

	if err := validation.ValidateUpdateList(req); err != nil {
		return err
	}

	if err := e.svc.Update(ctx, id, req); err != nil {
		return e.serviceError(ctx, fmt.Sprintf("failed to save list %d", id), err)
	}

	resp, err := e.svc.Get(ctx, id)
	if err != nil {
		return e.serviceError(ctx, fmt.Sprintf("list %d saved but reload failed", id), err)
	}

	list := FromResponse(resp)
	e.mu.Lock()
	e.snapshot = list
	e.working = list.Clone()
	e.leavePending = false
	e.mu.Unlock()

	e.logger.Info("list saved", zap.Int64("list_id", id), zap.Int("products", len(list.Products)))
	return nil
}

// Delete removes the list on the server and unloads the editor.
func (e *Editor) Delete(ctx context.Context) error {
	id := e.ListID()
	if id == 0 {
		return ErrNotLoaded
	}
	if err := e.svc.Delete(ctx, id); err != nil {
		return e.serviceError(ctx, fmt.Sprintf("failed to delete list %d", id), err)
	}
	e.mu.Lock()
	e.loaded = false
	e.snapshot = List{}
	e.working = List{}
	e.leavePending = false
	e.mu.Unlock()
	return nil
}

// RequestLeave returns true when the user may leave right away. With
// unsaved changes it arms a confirmation and returns false.
func (e *Editor) RequestLeave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || !HasUnsavedChanges(e.snapshot, e.working) {
		e.leavePending = false
		return true
	}
	e.leavePending = true
	return false
}

// ConfirmLeave abandons local edits.
func (e *Editor) ConfirmLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leavePending = false
	if e.loaded {
		e.working = e.snapshot.Clone()
	}
}

func (e *Editor) CancelLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leavePending = false
}

func (e *Editor) LeavePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leavePending
}
