package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/validation"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
	modeConfirmLeave
	modeConfirmDelete
)

type field int

const (
	fieldRename field = iota
	fieldQuantity
	fieldAddName
	fieldAddQuantity
	fieldTitle
	fieldStore
	fieldDate
)

var fieldPrompts = map[field]string{
	fieldRename:      "Name: ",
	fieldQuantity:    "Quantity: ",
	fieldAddName:     "New product: ",
	fieldAddQuantity: "Quantity: ",
	fieldTitle:       "Title: ",
	fieldStore:       "Store: ",
	fieldDate:        "Planned date (YYYY-MM-DD): ",
}

type saveDoneMsg struct{ err error }

type deleteDoneMsg struct{ err error }

// Model is the bubbletea model of one list being edited.
type Model struct {
	ctx    context.Context
	editor *listedit.Editor
	styles Styles

	cursor  int
	mode    mode
	field   field
	input   textinput.Model
	newName string

	busy    bool
	status  string
	err     string
	deleted bool
	width   int
}

// New returns a model over an editor that already has a list loaded.
func New(ctx context.Context, editor *listedit.Editor) Model {
	ti := textinput.New()
	ti.CharLimit = validation.MaxTitleLength
	return Model{
		ctx:    ctx,
		editor: editor,
		styles: DefaultStyles(),
		input:  ti,
	}
}

// Run starts the editor full screen and blocks until the user leaves.
func Run(ctx context.Context, editor *listedit.Editor) (Model, error) {
	final, err := tea.NewProgram(New(ctx, editor), tea.WithContext(ctx)).Run()
	if err != nil {
		return Model{}, err
	}
	m, _ := final.(Model)
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Deleted reports whether the list was deleted before leaving.
func (m Model) Deleted() bool {
	return m.deleted
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case saveDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = describe(msg.err)
			return m, nil
		}
		m.err = ""
		m.status = "Saved."
		m.clampCursor()
		return m, nil
	case deleteDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.mode = modeBrowse
			m.err = describe(msg.err)
			return m, nil
		}
		m.deleted = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeConfirmLeave:
			return m.updateConfirmLeave(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.status = ""
	products := m.editor.Working().Products

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(products)-1 {
			m.cursor++
		}
	case "r":
		if p, ok := m.selected(); ok {
			return m.startInput(fieldRename, p.Name)
		}
	case "u":
		if p, ok := m.selected(); ok {
			return m.startInput(fieldQuantity, strconv.Itoa(p.Quantity))
		}
	case "d", "delete":
		if p, ok := m.selected(); ok {
			m.setErr(m.editor.DeleteProduct(p.Ref))
			m.clampCursor()
		}
	case "a":
		return m.startInput(fieldAddName, "")
	case "t":
		return m.startInput(fieldTitle, m.editor.Working().Title)
	case "s":
		return m.startInput(fieldStore, m.editor.Working().StoreName)
	case "p":
		return m.startInput(fieldDate, shopping.DisplayDate(m.editor.Working().PlannedDate))
	case "x":
		m.editor.Discard()
		m.clampCursor()
		m.status = "Changes discarded."
	case "w", "ctrl+s":
		if !m.editor.HasUnsavedChanges() {
			m.status = "Nothing to save."
			return m, nil
		}
		m.busy = true
		m.status = "Saving..."
		return m, m.saveCmd()
	case "D":
		m.mode = modeConfirmDelete
	case "esc", "b", "q", "ctrl+c":
		if m.editor.RequestLeave() {
			return m, tea.Quit
		}
		m.mode = modeConfirmLeave
	}
	return m, nil
}

func (m Model) updateConfirmLeave(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.editor.ConfirmLeave()
		return m, tea.Quit
	case "n", "N", "esc":
		m.editor.CancelLeave()
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.busy = true
		m.status = "Deleting..."
		return m, m.deleteCmd()
	case "n", "N", "esc":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) startInput(f field, value string) (tea.Model, tea.Cmd) {
	m.mode = modeInput
	m.field = f
	m.err = ""
	m.input.Prompt = fieldPrompts[f]
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		return m, nil
	case "enter":
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
	m.newName = ""
}

// submitInput applies the edited value. Invalid input keeps the previous
// value and reports the error.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	var err error

	switch m.field {
	case fieldRename:
		if p, ok := m.selected(); ok {
			err = m.editor.RenameProduct(p.Ref, value)
		}
	case fieldQuantity:
		if p, ok := m.selected(); ok {
			var qty int
			if qty, err = parseQuantity(value); err == nil {
				err = m.editor.SetQuantity(p.Ref, qty)
			}
		}
	case fieldAddName:
		if value == "" {
			err = errors.New("Product name is required")
			break
		}
		m.newName = value
		m.field = fieldAddQuantity
		m.input.Prompt = fieldPrompts[fieldAddQuantity]
		m.input.SetValue("1")
		m.input.CursorEnd()
		return m, nil
	case fieldAddQuantity:
		var qty int
		if qty, err = parseQuantity(value); err == nil {
			_, err = m.editor.AddProduct(m.newName, qty)
			if err == nil {
				m.cursor = len(m.editor.Working().Products) - 1
			}
		}
	case fieldTitle:
		err = m.editor.SetTitle(value)
	case fieldStore:
		err = m.editor.SetStoreName(value)
	case fieldDate:
		err = m.editor.SetPlannedDate(value)
	}

	m.stopInput()
	m.setErr(err)
	return m, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("Quantity must be greater than 0")
	}
	return n, nil
}

func (m Model) saveCmd() tea.Cmd {
	ctx, editor := m.ctx, m.editor
	return func() tea.Msg {
		return saveDoneMsg{err: editor.Save(ctx)}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	ctx, editor := m.ctx, m.editor
	return func() tea.Msg {
		return deleteDoneMsg{err: editor.Delete(ctx)}
	}
}

func (m Model) selected() (listedit.Product, bool) {
	products := m.editor.Working().Products
	if m.cursor < 0 || m.cursor >= len(products) {
		return listedit.Product{}, false
	}
	return products[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.editor.Working().Products)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setErr(err error) {
	if err == nil {
		m.err = ""
		return
	}
	m.err = describe(err)
}

// describe turns an error into one line for the status bar.
func describe(err error) string {
	if verr, ok := validation.As(err); ok {
		var msgs []string
		for _, v := range verr.Violations {
			msgs = append(msgs, v.Messages...)
		}
		return strings.Join(msgs, "; ")
	}
	if errors.Is(err, listedit.ErrListNotFound) {
		return "This list no longer exists."
	}
	return fmt.Sprint(err)
}
