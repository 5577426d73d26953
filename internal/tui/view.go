package tui

import (
	"fmt"
	"strings"

	"ai-shopping-list/internal/shopping"
)

const helpLine = "↑/↓ move • r rename • u quantity • d delete • a add • t title • s store • p date • w save • x discard • D delete list • esc leave"

func (m Model) View() string {
	var sb strings.Builder
	l := m.editor.Working()

	title := l.Title
	if title == "" {
		title = "(untitled)"
	}
	sb.WriteString(m.styles.Title.Render(title))
	if m.editor.HasUnsavedChanges() {
		sb.WriteString(" " + m.styles.Dirty.Render("● unsaved"))
	}
	sb.WriteString("\n")

	var meta []string
	if l.StoreName != "" {
		meta = append(meta, "Store: "+l.StoreName)
	}
	if l.PlannedDate != "" {
		meta = append(meta, "Planned: "+shopping.DisplayDate(l.PlannedDate))
	}
	if l.Source != "" {
		meta = append(meta, "Source: "+l.Source)
	}
	if len(meta) > 0 {
		sb.WriteString(m.styles.Meta.Render(strings.Join(meta, "  ·  ")))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("  %-40s %5s  %-10s", "Product", "Qty", "Status")))
	sb.WriteString("\n")
	if len(l.Products) == 0 {
		sb.WriteString(m.styles.Meta.Render("  No products yet. Press a to add one."))
		sb.WriteString("\n")
	}
	for i, p := range l.Products {
		status := p.StatusLabel
		if p.Ref.IsPending() {
			status = "new"
		}
		row := fmt.Sprintf("%-40s %5d  %-10s", truncate(p.Name, 40), p.Quantity, status)
		switch {
		case i == m.cursor:
			sb.WriteString(m.styles.Selected.Render("> " + row))
		case p.Ref.IsPending():
			sb.WriteString(m.styles.Pending.Render("  " + row))
		default:
			sb.WriteString("  " + row)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch m.mode {
	case modeInput:
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
	case modeConfirmLeave:
		sb.WriteString(m.styles.Prompt.Render("You have unsaved changes. Leave anyway? (y/n)"))
		sb.WriteString("\n")
	case modeConfirmDelete:
		sb.WriteString(m.styles.Prompt.Render("Delete this list permanently? (y/n)"))
		sb.WriteString("\n")
	}

	if m.err != "" {
		sb.WriteString(m.styles.Error.Render(m.err))
		sb.WriteString("\n")
	} else if m.status != "" {
		sb.WriteString(m.styles.Status.Render(m.status))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Help.Render(helpLine))
	return sb.String()
}

func truncate(s string, l int) string {
	r := []rune(s)
	if len(r) > l {
		return string(r[:l-3]) + "..."
	}
	return s
}
