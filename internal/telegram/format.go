package telegram

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/forms"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/metrics"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/suggest"
	"ai-shopping-list/internal/validation"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🛒 *AI Shopping List*

*Account*
/login email password
/logout
/profile · /profile name <name> · /profile household <size> [ages] · /profile diet <a, b>

*Lists*
/lists [page] [newest|oldest|name]
/open <id> · /close · /delete [id]
/new [title] · /generate [title]

*Editing the open list*
/show
/title <text> · /store <text> · /date <YYYY-MM-DD|->
/add <name> [qty] · /rename <n> <name> · /qty <n> <qty> · /del <n>
/suggest [hint]
/save · /discard`

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// describeError renders err as one user-facing message.
func describeError(err error) string {
	if verr, ok := validation.As(err); ok {
		var msgs []string
		for _, v := range verr.Violations {
			msgs = append(msgs, v.Messages...)
		}
		return strings.Join(msgs, "\n")
	}
	switch {
	case errors.Is(err, listedit.ErrListNotFound), api.IsNotFound(err):
		return "Shopping list not found."
	case errors.Is(err, listedit.ErrSaveInProgress):
		return "A save is already in progress."
	case errors.Is(err, shopping.ErrMissingListID):
		return shopping.ErrMissingListID.Error()
	case api.IsNetwork(err):
		return "Could not reach the shopping list service. Please try again later."
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		if reason := apiErr.FirstReason(); reason != "" {
			return reason
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return err.Error()
}

// formErrorText joins a form-level message with field messages, sorted by
// field for a stable order.
func formErrorText(formError string, fieldErrs forms.Errors) string {
	var lines []string
	if formError != "" {
		lines = append(lines, formError)
	}
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	for _, f := range fields {
		lines = append(lines, fieldErrs[f])
	}
	if len(lines) == 0 {
		return "Something went wrong."
	}
	return strings.Join(lines, "\n")
}

func formatList(l listedit.List, dirty bool) string {
	var sb strings.Builder

	title := l.Title
	if title == "" {
		title = "Untitled list"
	}
	sb.WriteString(fmt.Sprintf("🛒 *%s* (#%d)\n", escape(title), l.ID))

	var meta []string
	if l.StoreName != "" {
		meta = append(meta, "🏬 "+escape(l.StoreName))
	}
	if l.PlannedDate != "" {
		meta = append(meta, "📅 "+shopping.DisplayDate(l.PlannedDate))
	}
	if len(meta) > 0 {
		sb.WriteString(strings.Join(meta, " · "))
		sb.WriteString("\n")
	}
	if dirty {
		sb.WriteString("⚠️ _Unsaved changes: /save or /discard_\n")
	}
	sb.WriteString("\n")

	if len(l.Products) == 0 {
		sb.WriteString("_No products yet. Add one with /add <name> [qty]._\n")
		return sb.String()
	}
	for i, p := range l.Products {
		status := p.StatusLabel
		if p.Ref.IsPending() {
			status = "new"
		}
		sb.WriteString(fmt.Sprintf("%d. %s × %d · %s\n", i+1, escape(p.Name), p.Quantity, status))
	}
	return sb.String()
}

func formatLists(resp *api.ShoppingListsResponse) string {
	var sb strings.Builder
	pg := resp.Pagination
	sb.WriteString(fmt.Sprintf("📋 *Your lists* (page %d of %d, %d total)\n\n", pg.Page, max(pg.TotalPages, 1), pg.TotalItems))

	if len(resp.Data) == 0 {
		sb.WriteString("_No lists yet. Create one with /new or /generate._\n")
		return sb.String()
	}
	for _, l := range resp.Data {
		title := l.Title
		if title == "" {
			title = "Untitled list"
		}
		sb.WriteString(fmt.Sprintf("• #%d *%s* · %d products", l.ID, escape(title), l.ProductsCount))
		if l.PlannedShoppingDate != "" {
			sb.WriteString(" · 📅 " + shopping.DisplayDate(l.PlannedShoppingDate))
		}
		if l.Source == api.SourceGenerated {
			sb.WriteString(" · 🤖")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nOpen one with /open <id>.")
	if pg.Page < pg.TotalPages {
		sb.WriteString(fmt.Sprintf(" Next page: /lists %d", pg.Page+1))
	}
	return sb.String()
}

func formatProfile(email string, listsCount int, d forms.ProfileData) string {
	var sb strings.Builder
	sb.WriteString("👤 *Profile*\n\n")
	sb.WriteString(fmt.Sprintf("Name: %s\n", escape(d.UserName)))
	sb.WriteString(fmt.Sprintf("Email: %s\n", escape(email)))

	if d.HouseholdSize == "" {
		sb.WriteString("Household: not set\n")
	} else {
		sb.WriteString("Household: " + d.HouseholdSize)
		if len(d.Ages) > 0 {
			sb.WriteString(" (ages " + strings.Join(d.Ages, ", ") + ")")
		}
		sb.WriteString("\n")
	}

	if len(d.DietaryPreferences) == 0 {
		sb.WriteString("Diet: none\n")
	} else {
		labels := make([]string, 0, len(d.DietaryPreferences))
		for _, p := range d.DietaryPreferences {
			labels = append(labels, forms.DietaryLabel(p))
		}
		sb.WriteString("Diet: " + escape(strings.Join(labels, ", ")) + "\n")
	}
	sb.WriteString(fmt.Sprintf("Lists: %s", humanize.Comma(int64(listsCount))))
	return sb.String()
}

func formatSuggestions(products []suggest.Suggestion) string {
	var sb strings.Builder
	sb.WriteString("💡 *Suggestions*\n\n")
	for i, s := range products {
		sb.WriteString(fmt.Sprintf("%d. %s × %d\n", i+1, escape(s.Name), s.Quantity))
		if s.Reason != "" {
			sb.WriteString(fmt.Sprintf("   _%s_\n", escape(s.Reason)))
		}
	}
	sb.WriteString("\nTap to add to the list, then /save.")
	return sb.String()
}

func formatUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %s API calls (%d errors, %.0fms avg), %d LLM calls, %s tokens\n",
			d.Date,
			humanize.Comma(int64(d.APIRequests)),
			d.Errors,
			d.AvgLatencyMS,
			d.LLMCalls,
			humanize.Comma(int64(d.TotalPrompt+d.TotalCompletion)),
		))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %s (Alloc) / %s (Sys)\n", health.Alloc, health.Sys))
	sb.WriteString(fmt.Sprintf("• GC runs: %d\n", health.NumGC))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	sb.WriteString(fmt.Sprintf("• Up since: %s", health.Uptime))
	return sb.String()
}
