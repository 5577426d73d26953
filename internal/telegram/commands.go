package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/forms"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/suggest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const loginRequired = "🔒 Please log in first: `/login email password`"

func (b *Bot) handleStart(r *request) {
	c := r.chat
	if !c.auth.IsAuthenticated() {
		b.reply(r.chatID, "👋 *Welcome to AI Shopping List!*\n\nLog in with `/login email password` to manage your lists.\nSend /help for all commands.")
		return
	}

	var (
		profile *api.UserProfileResponse
		recent  *api.ShoppingListsResponse
	)
	g, gctx := errgroup.WithContext(r.ctx)
	g.Go(func() error {
		p, err := c.auth.GetUserProfile(gctx)
		profile = p
		return err
	})
	g.Go(func() error {
		l, err := c.lists.List(gctx, api.ListQuery{Page: 1, PageSize: 5, Sort: api.SortNewest})
		recent = l
		return err
	})
	if err := g.Wait(); err != nil {
		b.replyError(r, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👋 *Hi %s!*\n\n", escape(profile.UserName)))
	sb.WriteString(formatLists(recent))
	b.reply(r.chatID, sb.String())
}

func (b *Bot) handleHelp(r *request) {
	b.reply(r.chatID, helpText)
}

func (b *Bot) handleLogin(r *request) {
	// The message carries a password.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(r.chatID, r.messageID)); err != nil {
		b.logger.Debug("failed to delete login message", zap.Error(err))
	}

	fields := strings.Fields(r.args)
	if len(fields) != 2 {
		b.reply(r.chatID, "Usage: `/login email password`")
		return
	}

	form := forms.NewLoginForm(r.chat.auth)
	form.SetField("email", fields[0])
	form.SetField("password", fields[1])
	if !form.Submit(r.ctx) {
		b.reply(r.chatID, "❌ "+escape(formErrorText(form.FormError(), form.VisibleErrors())))
		return
	}

	name := form.Email()
	if info, ok := r.chat.auth.UserInfo(); ok && info.UserName != "" {
		name = info.UserName
	}
	b.reply(r.chatID, fmt.Sprintf("✅ Logged in as *%s*.", escape(name)))

	// Return to the list that was open when the session expired.
	if id := r.state.OpenListID; id > 0 && !r.chat.editor.Loaded() {
		b.openList(r, id)
	}
}

func (b *Bot) handleLogout(r *request) {
	if err := r.chat.auth.Logout(r.ctx); err != nil {
		b.replyError(r, err)
		return
	}
	r.chat.editor = b.newEditor(r.chat)
	r.chat.suggestions = nil
	r.state.OpenListID = 0
	r.state.clearPending()
	b.saveState(r)
	b.reply(r.chatID, "👋 Logged out.")
}

// handleProfile shows the profile, or updates one aspect of it:
//
//	/profile name Alice
//	/profile household 2 30,28
//	/profile diet vegan, gluten-free
func (b *Bot) handleProfile(r *request) {
	form := forms.NewProfileForm(r.chat.auth)
	if err := form.Load(r.ctx); err != nil {
		b.replyError(r, err)
		return
	}

	field, value, _ := strings.Cut(r.args, " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(field) {
	case "":
		b.reply(r.chatID, formatProfile(form.Email(), form.ListsCount(), form.Data()))
		return
	case "name":
		form.SetField("userName", value)
	case "household":
		size, ages, _ := strings.Cut(value, " ")
		form.SetField("householdSize", size)
		if ages = strings.TrimSpace(ages); ages != "" {
			for i, age := range strings.Split(ages, ",") {
				form.SetField("age_"+strconv.Itoa(i), strings.TrimSpace(age))
			}
		}
	case "diet":
		for _, p := range form.Data().DietaryPreferences {
			form.RemoveDietaryPreference(p)
		}
		if !strings.EqualFold(value, "none") {
			for _, p := range strings.Split(value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					form.AddDietaryPreference(p)
				}
			}
		}
	default:
		b.reply(r.chatID, "Usage: `/profile`, `/profile name <name>`, `/profile household <size> [ages]` or `/profile diet <a, b>`")
		return
	}

	if !form.Submit(r.ctx) {
		if n := form.Notice(); n != nil {
			b.reply(r.chatID, fmt.Sprintf("❌ *%s*\n%s", escape(n.Title), escape(n.Description)))
			return
		}
		b.reply(r.chatID, "❌ "+escape(formErrorText("", form.Errors())))
		return
	}
	b.reply(r.chatID, "✅ *"+forms.ProfileUpdated+"*\n\n"+formatProfile(form.Email(), form.ListsCount(), form.Data()))
}

// handleLists accepts an optional page number and sort order in any order.
func (b *Bot) handleLists(r *request) {
	var q api.ListQuery
	for _, arg := range strings.Fields(r.args) {
		if n, err := strconv.Atoi(arg); err == nil {
			q.Page = n
			continue
		}
		q.Sort = arg
	}
	resp, err := r.chat.lists.List(r.ctx, q)
	if err != nil {
		b.replyError(r, err)
		return
	}
	b.reply(r.chatID, formatLists(resp))
}

func (b *Bot) handleOpen(r *request) {
	id, err := strconv.ParseInt(r.args, 10, 64)
	if err != nil || id <= 0 {
		b.reply(r.chatID, "Usage: `/open <list id>`")
		return
	}
	if !b.confirmLeave(r, actionOpen, ChatContext{ListID: id}) {
		return
	}
	b.openList(r, id)
}

func (b *Bot) handleShow(r *request) {
	b.reply(r.chatID, formatList(r.chat.editor.Working(), r.chat.editor.HasUnsavedChanges()))
}

func (b *Bot) handleTitle(r *request) {
	b.afterEdit(r, r.chat.editor.SetTitle(r.args), "Title updated.")
}

func (b *Bot) handleStore(r *request) {
	b.afterEdit(r, r.chat.editor.SetStoreName(r.args), "Store updated.")
}

// handleDate takes YYYY-MM-DD; "-" or "none" clears the date.
func (b *Bot) handleDate(r *request) {
	value := r.args
	if value == "-" || strings.EqualFold(value, "none") {
		value = ""
	}
	b.afterEdit(r, r.chat.editor.SetPlannedDate(value), "Planned date updated.")
}

func (b *Bot) handleAdd(r *request) {
	name, qty := parseProduct(r.args)
	if name == "" {
		b.reply(r.chatID, "Usage: `/add <name> [quantity]`")
		return
	}
	_, err := r.chat.editor.AddProduct(name, qty)
	b.afterEdit(r, err, fmt.Sprintf("Added %s.", name))
}

func (b *Bot) handleRename(r *request) {
	pos, name, _ := strings.Cut(r.args, " ")
	p, ok := b.productAt(r, pos)
	if !ok {
		return
	}
	b.afterEdit(r, r.chat.editor.RenameProduct(p.Ref, name), "Product renamed.")
}

func (b *Bot) handleQuantity(r *request) {
	pos, value, _ := strings.Cut(r.args, " ")
	p, ok := b.productAt(r, pos)
	if !ok {
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || qty <= 0 {
		b.reply(r.chatID, "❌ Quantity must be greater than 0")
		return
	}
	b.afterEdit(r, r.chat.editor.SetQuantity(p.Ref, qty), "Quantity updated.")
}

func (b *Bot) handleDeleteProduct(r *request) {
	p, ok := b.productAt(r, r.args)
	if !ok {
		return
	}
	b.afterEdit(r, r.chat.editor.DeleteProduct(p.Ref), fmt.Sprintf("Removed %s.", p.Name))
}

func (b *Bot) handleSave(r *request) {
	editor := r.chat.editor
	if !editor.HasUnsavedChanges() {
		b.reply(r.chatID, "Nothing to save.")
		return
	}
	messageID, _ := b.replyStatus(r.chatID, "💾 *Saving...*")
	if err := editor.Save(r.ctx); err != nil {
		if api.IsUnauthorized(err) {
			b.replyError(r, err)
			return
		}
		b.editMessage(r.chatID, messageID, "❌ *Save failed:* "+escape(describeError(err))+"\nYour changes are kept; try /save again.")
		return
	}
	b.editMessage(r.chatID, messageID, "✅ *Saved!*\n\n"+formatList(editor.Working(), false))
}

func (b *Bot) handleDiscard(r *request) {
	r.chat.editor.Discard()
	b.reply(r.chatID, "↩️ Changes discarded.\n\n"+formatList(r.chat.editor.Working(), false))
}

func (b *Bot) handleClose(r *request) {
	if !b.confirmLeave(r, actionClose, ChatContext{}) {
		return
	}
	b.closeList(r)
}

// handleDeleteList asks before deleting the given list, or the open one.
func (b *Bot) handleDeleteList(r *request) {
	id := r.chat.editor.ListID()
	if r.args != "" {
		parsed, err := strconv.ParseInt(r.args, 10, 64)
		if err != nil || parsed <= 0 {
			b.reply(r.chatID, "Usage: `/delete [list id]`")
			return
		}
		id = parsed
	}
	if id == 0 {
		b.reply(r.chatID, "Usage: `/delete [list id]`")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "delete|"+strconv.FormatInt(id, 10)),
			tgbotapi.NewInlineKeyboardButtonData("Keep", "keep|"),
		),
	)
	b.replyWithKeyboard(r.chatID, fmt.Sprintf("⚠️ Delete list #%d permanently? This cannot be undone.", id), keyboard)
}

func (b *Bot) handleNew(r *request) {
	if !b.confirmLeave(r, actionNew, ChatContext{Title: r.args}) {
		return
	}
	b.createList(r, r.args)
}

func (b *Bot) handleGenerate(r *request) {
	if !b.confirmLeave(r, actionGenerate, ChatContext{Title: r.args}) {
		return
	}
	b.generateList(r, r.args)
}

func (b *Bot) handleSuggest(r *request) {
	if b.suggester == nil {
		b.reply(r.chatID, "Suggestions are not configured.")
		return
	}

	messageID, _ := b.replyStatus(r.chatID, "🤔 *Thinking...*\n(Looking for products that fit your list)")

	profile, err := r.chat.auth.GetUserProfile(r.ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			b.replyError(r, err)
			return
		}
		b.logger.Warn("suggesting without profile", zap.Error(err))
	}

	res, err := b.suggester.Suggest(r.ctx, suggest.RequestFor(r.chat.editor.Working(), profile, r.args))
	// Alert on Context Bloat
	if res.Usage.PromptTokens > bloatThreshold {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: Suggest\nModel: %s\nPrompt Tokens: %d", res.Usage.Model, res.Usage.PromptTokens))
	}
	if err != nil {
		b.logger.Error("failed to suggest products", zap.Error(err))
		b.editMessage(r.chatID, messageID, "❌ Could not come up with suggestions right now.")
		return
	}
	if len(res.Products) == 0 {
		b.editMessage(r.chatID, messageID, "🤷 No new suggestions for this list.")
		return
	}

	r.chat.suggestions = res.Products
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(res.Products)+1)
	for i, s := range res.Products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("➕ %s × %d", s.Name, s.Quantity), "sugg|"+strconv.Itoa(i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Add all", "sugg|all")))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	edit := tgbotapi.NewEditMessageTextAndMarkup(r.chatID, messageID, formatSuggestions(res.Products), keyboard)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if messageID == 0 {
		b.replyWithKeyboard(r.chatID, formatSuggestions(res.Products), keyboard)
		return
	}
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to send suggestions", zap.Error(err))
	}
}

// confirmLeave returns true when the open list may be left right away.
// Otherwise it stores the action and asks the user first.
func (b *Bot) confirmLeave(r *request, action string, data ChatContext) bool {
	if r.chat.editor.RequestLeave() {
		return true
	}
	r.state.setPending(action, data)
	b.saveState(r)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Leave without saving", "leave|"),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Stay", "stay|"),
		),
	)
	b.replyWithKeyboard(r.chatID, "⚠️ You have unsaved changes. Leave anyway?", keyboard)
	return false
}

func (b *Bot) openList(r *request, id int64) {
	r.chat.suggestions = nil
	if err := r.chat.editor.Load(r.ctx, id); err != nil {
		if !api.IsUnauthorized(err) {
			r.state.OpenListID = 0
			b.saveState(r)
		}
		b.replyError(r, err)
		return
	}
	r.state.OpenListID = id
	r.state.clearPending()
	b.saveState(r)
	b.reply(r.chatID, formatList(r.chat.editor.Working(), false))
}

func (b *Bot) closeList(r *request) {
	r.chat.editor = b.newEditor(r.chat)
	r.chat.suggestions = nil
	r.state.OpenListID = 0
	r.state.clearPending()
	b.saveState(r)
	b.reply(r.chatID, "📕 List closed.")
}

func (b *Bot) createList(r *request, title string) {
	created, err := r.chat.lists.Create(r.ctx, api.CreateShoppingListRequest{Title: title})
	if err != nil {
		b.saveState(r)
		b.replyError(r, err)
		return
	}
	b.openList(r, created.ID)
}

func (b *Bot) generateList(r *request, title string) {
	messageID, _ := b.replyStatus(r.chatID, "🧑‍🍳 *Generating...*\n(Building a list for your household)")
	generated, err := r.chat.lists.Generate(r.ctx, api.GenerateShoppingListRequest{Title: title})
	if err != nil {
		b.saveState(r)
		if api.IsUnauthorized(err) {
			b.replyError(r, err)
			return
		}
		b.editMessage(r.chatID, messageID, "❌ *Error generating list:* "+escape(describeError(err)))
		return
	}
	b.editMessage(r.chatID, messageID, fmt.Sprintf("✅ Generated list #%d.", generated.ID))
	b.openList(r, generated.ID)
}

func (b *Bot) deleteList(r *request, id int64) {
	var err error
	if r.chat.editor.ListID() == id {
		err = r.chat.editor.Delete(r.ctx)
	} else {
		err = r.chat.lists.Delete(r.ctx, id)
	}
	if err != nil {
		if api.IsUnauthorized(err) {
			b.replyError(r, err)
			return
		}
		b.editMessage(r.chatID, r.messageID, "❌ "+escape(describeError(err)))
		return
	}

	if r.state.OpenListID == id {
		r.chat.editor = b.newEditor(r.chat)
		r.chat.suggestions = nil
		r.state.OpenListID = 0
		b.saveState(r)
	}
	b.editMessage(r.chatID, r.messageID, fmt.Sprintf("🗑 List #%d deleted.", id))
}

// addSuggestions adds one suggestion by index, or all of them.
func (b *Bot) addSuggestions(r *request, payload string) {
	if !r.chat.editor.Loaded() || len(r.chat.suggestions) == 0 {
		b.editMessage(r.chatID, r.messageID, "These suggestions are no longer available. Run /suggest again.")
		return
	}

	picked := r.chat.suggestions
	if payload != "all" {
		i, err := strconv.Atoi(payload)
		if err != nil || i < 0 || i >= len(r.chat.suggestions) {
			return
		}
		picked = r.chat.suggestions[i : i+1]
	}

	var added []string
	for _, s := range picked {
		if _, err := r.chat.editor.AddProduct(s.Name, s.Quantity); err != nil {
			b.logger.Info("suggestion rejected", zap.String("name", s.Name), zap.Error(err))
			continue
		}
		added = append(added, s.Name)
	}
	if payload == "all" {
		r.chat.suggestions = nil
	}
	if len(added) == 0 {
		b.reply(r.chatID, "Nothing was added.")
		return
	}
	b.reply(r.chatID, fmt.Sprintf("➕ Added %s.\n\n%s", escape(strings.Join(added, ", ")), formatList(r.chat.editor.Working(), true)))
}

func (b *Bot) afterEdit(r *request, err error, note string) {
	if err != nil {
		b.replyError(r, err)
		return
	}
	b.reply(r.chatID, "✏️ "+escape(note)+"\n\n"+formatList(r.chat.editor.Working(), r.chat.editor.HasUnsavedChanges()))
}

// productAt resolves a 1-based row number of the working copy.
func (b *Bot) productAt(r *request, pos string) (listedit.Product, bool) {
	products := r.chat.editor.Working().Products
	n, err := strconv.Atoi(strings.TrimSpace(pos))
	if err != nil || n < 1 || n > len(products) {
		b.reply(r.chatID, fmt.Sprintf("❌ Pick a product number between 1 and %d (see /show).", len(products)))
		return listedit.Product{}, false
	}
	return products[n-1], true
}

// parseProduct splits "Oat milk 2" or "Oat milk x2" into name and quantity.
// Without a trailing number the quantity is 1.
func parseProduct(args string) (string, int) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", 0
	}
	if len(fields) > 1 {
		last := strings.TrimPrefix(strings.ToLower(fields[len(fields)-1]), "x")
		if n, err := strconv.Atoi(last); err == nil {
			return strings.Join(fields[:len(fields)-1], " "), n
		}
	}
	return strings.Join(fields, " "), 1
}
