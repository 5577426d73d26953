package telegram

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/auth"
	"ai-shopping-list/internal/config"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/metrics"
	"ai-shopping-list/internal/session"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/suggest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	stateTTL          = 30 * 24 * time.Hour
	messageTimeout    = 2 * time.Minute
	bloatThreshold    = 4000
	metricsReportDays = 7
)

// API is the part of the Telegram client the bot talks to.
// *tgbotapi.BotAPI implements it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

type Options struct {
	Config    *config.Config
	DB        *sql.DB
	Metrics   *metrics.Store
	Suggester *suggest.Suggester
	Logger    *zap.Logger
	// NewClient builds the API client of one chat. Each chat carries its
	// own bearer token.
	NewClient func() *api.Client
}

// Bot exposes the shopping lists of each chat's user over Telegram.
type Bot struct {
	api          API
	cfg          *config.Config
	db           *sql.DB
	states       *ChatStateRepository
	metricsStore *metrics.Store
	suggester    *suggest.Suggester
	logger       *zap.Logger
	newClient    func() *api.Client

	mu    sync.Mutex
	chats map[int64]*chat
}

// chat is the per-chat client state. mu serializes the chat's updates.
type chat struct {
	mu          sync.Mutex
	auth        *auth.Service
	lists       *shopping.Service
	editor      *listedit.Editor
	suggestions []suggest.Suggestion
	restored    bool
	evicted     bool
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(opts Options) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(opts.Config.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	b := newBot(bot, opts)
	b.logger.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	webhookURL := opts.Config.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	b.logger.Info("webhook set", zap.String("description", resp.Description))
	return b, nil
}

func newBot(tg API, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	newClient := opts.NewClient
	if newClient == nil {
		newClient = func() *api.Client {
			return api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
		}
	}
	return &Bot{
		api:          tg,
		cfg:          cfg,
		db:           opts.DB,
		states:       NewChatStateRepository(opts.DB, stateTTL),
		metricsStore: opts.Metrics,
		suggester:    opts.Suggester,
		logger:       logger,
		newClient:    newClient,
		chats:        make(map[int64]*chat),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// CleanupExpired drops expired chat states and chat sessions.
func (b *Bot) CleanupExpired(ctx context.Context) error {
	states, err := b.states.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	sessions, err := session.CleanupExpired(ctx, b.db, time.Now())
	if err != nil {
		return err
	}
	evicted := b.evictIdleChats()
	b.logger.Info("expired bot state removed",
		zap.Int64("chat_states", states),
		zap.Int64("sessions", sessions),
		zap.Int("chats", evicted),
	)
	return nil
}

// evictIdleChats drops in-memory chats that have neither a session nor an
// open list. Busy chats are skipped. Everything they hold is rebuilt from
// SQLite on the next update.
func (b *Bot) evictIdleChats() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int
	for id, c := range b.chats {
		if !c.mu.TryLock() {
			continue
		}
		if !c.auth.IsAuthenticated() && !c.editor.Loaded() {
			c.evicted = true
			delete(b.chats, id)
			n++
		}
		c.mu.Unlock()
	}
	return n
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}
	b.dispatch(update)
}

func (b *Bot) dispatch(update *tgbotapi.Update) {
	if q := update.CallbackQuery; q != nil {
		if q.From == nil || q.Message == nil || q.Message.Chat == nil || !b.isAllowed(q.From) {
			return
		}
		go b.processCallback(q)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.isAllowed(msg.From) {
		return
	}
	go b.processMessage(msg)
}

// isAllowed checks the allow-list; an empty list admits everyone.
func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if len(b.cfg.TelegramAllowedUserIDs) == 0 || slices.Contains(b.cfg.TelegramAllowedUserIDs, from.ID) {
		return true
	}
	b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	defer b.recoverUpdate("message", msg.Chat.ID)
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()
	b.handleMessage(ctx, msg)
}

func (b *Bot) processCallback(q *tgbotapi.CallbackQuery) {
	defer b.recoverUpdate("callback", q.Message.Chat.ID)
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()
	b.handleCallback(ctx, q)
}

// recoverUpdate keeps a panicking update from taking the process down.
func (b *Bot) recoverUpdate(kind string, chatID int64) {
	if v := recover(); v != nil {
		b.logger.Error("panic while handling update",
			zap.String("kind", kind),
			zap.Int64("chat_id", chatID),
			zap.Any("panic", v),
			zap.Stack("stack"),
		)
	}
}

// request is one command invocation inside a locked chat.
type request struct {
	ctx       context.Context
	chat      *chat
	state     *ChatState
	chatID    int64
	userID    int64
	messageID int
	args      string
}

type command struct {
	run       func(*Bot, *request)
	needsAuth bool
	needsList bool
}

var commands = map[string]command{
	"start":    {run: (*Bot).handleStart},
	"help":     {run: (*Bot).handleHelp},
	"login":    {run: (*Bot).handleLogin},
	"logout":   {run: (*Bot).handleLogout, needsAuth: true},
	"profile":  {run: (*Bot).handleProfile, needsAuth: true},
	"lists":    {run: (*Bot).handleLists, needsAuth: true},
	"open":     {run: (*Bot).handleOpen, needsAuth: true},
	"show":     {run: (*Bot).handleShow, needsAuth: true, needsList: true},
	"title":    {run: (*Bot).handleTitle, needsAuth: true, needsList: true},
	"store":    {run: (*Bot).handleStore, needsAuth: true, needsList: true},
	"date":     {run: (*Bot).handleDate, needsAuth: true, needsList: true},
	"add":      {run: (*Bot).handleAdd, needsAuth: true, needsList: true},
	"rename":   {run: (*Bot).handleRename, needsAuth: true, needsList: true},
	"qty":      {run: (*Bot).handleQuantity, needsAuth: true, needsList: true},
	"del":      {run: (*Bot).handleDeleteProduct, needsAuth: true, needsList: true},
	"save":     {run: (*Bot).handleSave, needsAuth: true, needsList: true},
	"discard":  {run: (*Bot).handleDiscard, needsAuth: true, needsList: true},
	"close":    {run: (*Bot).handleClose, needsAuth: true, needsList: true},
	"delete":   {run: (*Bot).handleDeleteList, needsAuth: true},
	"new":      {run: (*Bot).handleNew, needsAuth: true},
	"generate": {run: (*Bot).handleGenerate, needsAuth: true},
	"suggest":  {run: (*Bot).handleSuggest, needsAuth: true, needsList: true},
}

// parseCommand splits "/cmd@bot args" into its parts.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	name, args, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	name, args := parseCommand(msg.Text)
	if name == "" {
		b.reply(chatID, "Send /help to see what I can do.")
		return
	}

	// 0. Handle Admin Commands
	if name == "metrics" {
		b.handleMetricsRequest(ctx, msg)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		b.reply(chatID, fmt.Sprintf("Unknown command /%s. Send /help for the list of commands.", escape(name)))
		return
	}

	r, unlock, err := b.begin(ctx, chatID)
	if err != nil {
		b.logger.Error("failed to prepare chat", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "❌ Something went wrong. Please try again later.")
		return
	}
	defer unlock()
	r.userID = msg.From.ID
	r.messageID = msg.MessageID
	r.args = args

	if cmd.needsAuth && !r.chat.auth.IsAuthenticated() {
		b.reply(chatID, loginRequired)
		return
	}
	if cmd.needsList && !r.chat.editor.Loaded() {
		b.reply(chatID, "No list is open. Use /lists and then /open <id>.")
		return
	}
	cmd.run(b, r)
}

// begin locks the chat and loads its persisted state. The caller must
// invoke the returned unlock.
func (b *Bot) begin(ctx context.Context, chatID int64) (*request, func(), error) {
	var c *chat
	for {
		var err error
		c, err = b.chat(ctx, chatID)
		if err != nil {
			return nil, nil, err
		}
		c.mu.Lock()
		if !c.evicted {
			break
		}
		c.mu.Unlock()
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.logger.Warn("failed to load chat state", zap.Int64("chat_id", chatID), zap.Error(err))
		st = &ChatState{ChatID: chatID}
	}
	r := &request{ctx: ctx, chat: c, state: st, chatID: chatID}
	b.restore(r)
	return r, c.mu.Unlock, nil
}

func (b *Bot) chat(ctx context.Context, chatID int64) (*chat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.chats[chatID]; ok {
		return c, nil
	}

	logger := b.logger.With(zap.Int64("chat_id", chatID))
	client := b.newClient()
	store := session.NewSQLiteStore(b.db, "telegram:"+strconv.FormatInt(chatID, 10))
	authSvc, err := auth.NewService(ctx, client, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session for chat %d: %w", chatID, err)
	}

	c := &chat{
		auth:  authSvc,
		lists: shopping.NewService(client, logger),
	}
	c.editor = b.newEditor(c)
	b.chats[chatID] = c
	return c, nil
}

func (b *Bot) newEditor(c *chat) *listedit.Editor {
	return listedit.NewEditor(c.lists,
		listedit.WithLogger(b.logger),
		listedit.WithUnauthorizedHandler(c.auth.HandleUnauthorized),
	)
}

// restore reopens the list a chat had open before a restart.
func (b *Bot) restore(r *request) {
	c := r.chat
	if c.restored {
		return
	}
	c.restored = true
	if r.state.OpenListID == 0 || !c.auth.IsAuthenticated() {
		return
	}
	if err := c.editor.Load(r.ctx, r.state.OpenListID); err != nil {
		b.logger.Warn("failed to reopen list", zap.Int64("list_id", r.state.OpenListID), zap.Error(err))
		if api.IsNotFound(err) {
			r.state.OpenListID = 0
			b.saveState(r)
		}
	}
}

func (b *Bot) saveState(r *request) {
	if err := b.states.Save(r.ctx, r.state); err != nil {
		b.logger.Warn("failed to save chat state", zap.Int64("chat_id", r.chatID), zap.Error(err))
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}

	chatID := q.Message.Chat.ID
	r, unlock, err := b.begin(ctx, chatID)
	if err != nil {
		b.logger.Error("failed to prepare chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	defer unlock()
	r.userID = q.From.ID
	r.messageID = q.Message.MessageID

	if !r.chat.auth.IsAuthenticated() {
		b.editMessage(chatID, r.messageID, loginRequired)
		return
	}

	action, payload, _ := strings.Cut(q.Data, "|")
	switch action {
	case "leave":
		b.onLeave(r)
	case "stay":
		r.chat.editor.CancelLeave()
		r.state.clearPending()
		b.saveState(r)
		b.editMessage(chatID, r.messageID, "↩️ Staying on the list. Use /save to keep your changes.")
	case "delete":
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return
		}
		b.deleteList(r, id)
	case "keep":
		b.editMessage(chatID, r.messageID, "👍 Deletion cancelled.")
	case "sugg":
		b.addSuggestions(r, payload)
	default:
		b.logger.Warn("unknown callback", zap.String("data", q.Data))
	}
}

// onLeave drops local edits and runs the action that asked to leave.
func (b *Bot) onLeave(r *request) {
	r.chat.editor.ConfirmLeave()
	action, data := r.state.PendingAction, r.state.Context
	r.state.clearPending()
	b.editMessage(r.chatID, r.messageID, "🚪 Left without saving.")

	switch action {
	case actionOpen:
		b.openList(r, data.ListID)
	case actionClose:
		b.closeList(r)
	case actionNew:
		b.createList(r, data.Title)
	case actionGenerate:
		b.generateList(r, data.Title)
	default:
		b.saveState(r)
	}
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	b.handleMetricsCommand(ctx, msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	if b.metricsStore == nil {
		b.reply(chatID, "Metrics are disabled.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(ctx, metricsReportDays)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatUsage(usage, metrics.GetSysHealth(b.cfg.DataDir)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// replyStatus sends a placeholder that editMessage later replaces.
func (b *Bot) replyStatus(chatID int64, text string) (int, bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0, false
	}
	return sent.MessageID, true
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.reply(chatID, text)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// replyError turns err into a chat message. A rejected token logs the chat
// out but keeps the open list as the place to return to after /login.
func (b *Bot) replyError(r *request, err error) {
	if api.IsUnauthorized(err) {
		if r.chat.auth.IsAuthenticated() {
			r.chat.auth.HandleUnauthorized(r.ctx, err)
		}
		b.reply(r.chatID, "🔒 Your session has expired. Please /login again.")
		return
	}
	b.logger.Info("command failed", zap.Int64("chat_id", r.chatID), zap.Error(err))
	b.reply(r.chatID, "❌ "+escape(describeError(err)))
}
