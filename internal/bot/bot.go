package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/chat"
	"github.com/xaenox/supportlens/internal/dashboard"
	"github.com/xaenox/supportlens/internal/models"
)

// listLimit caps how many traces /recent and /search print.
const listLimit = 5

// Sender is the outgoing half of the Telegram API.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Backend is the trace store as seen by the bot. *client.Client satisfies it.
type Backend interface {
	chat.Backend
	dashboard.Store
}

type Bot struct {
	api     Sender
	poller  *tgbotapi.BotAPI
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*chat.Session
}

func New(token string, backend Backend, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, backend, logger)
	b.poller = api
	return b, nil
}

func newBot(api Sender, backend Backend, logger *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		backend:  backend,
		logger:   logger,
		sessions: make(map[int64]*chat.Session),
	}
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.poller.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			b.waitSessions()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	reply, err := b.session(message.Chat.ID).Send(ctx, content)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		b.sendMessage(message.Chat.ID, "Please send your question as text.")
		return
	case errors.Is(err, chat.ErrBusy):
		b.sendMessage(message.Chat.ID, "Still working on your previous message, one moment.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, reply.Content)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) session(chatID int64) *chat.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[chatID]
	if !ok {
		s = chat.NewSession(b.backend, b.logger.With(zap.Int64("chat_id", chatID)))
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) resetSession(chatID int64) *chat.Session {
	s := chat.NewSession(b.backend, b.logger.With(zap.Int64("chat_id", chatID)))
	b.mu.Lock()
	b.sessions[chatID] = s
	b.mu.Unlock()
	return s
}

func (b *Bot) waitSessions() {
	b.mu.Lock()
	sessions := make([]*chat.Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.Wait()
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "stats":
		b.handleStats(ctx, message)
	case "recent":
		b.handleRecent(ctx, message)
	case "search":
		b.handleSearch(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	s := b.resetSession(message.Chat.ID)
	b.sendMessage(message.Chat.ID, s.Messages()[0].Content)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Ask me anything about invoices, payments, refunds, your account or your subscription.

Available commands:
/start - Start a new conversation
/help - Show this help message
/stats - Show conversation analytics
/recent [category] - Show the latest logged conversations
/search <text> - Find logged conversations mentioning text

Categories: ` + categoryList()

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	analytics, err := b.backend.QueryAnalytics(ctx)
	if err != nil {
		b.logger.Error("Failed to get analytics",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load analytics. "+err.Error())
		return
	}

	b.sendMarkdown(message.Chat.ID, formatStats(analytics))
}

func (b *Bot) handleRecent(ctx context.Context, message *tgbotapi.Message) {
	arg := strings.TrimSpace(message.CommandArguments())
	query := models.TraceQuery{}
	if arg != "" && arg != models.CategoryAll {
		category, ok := parseCategoryArg(arg)
		if !ok {
			b.sendMessage(message.Chat.ID, "Unknown category. Choose one of: "+categoryList())
			return
		}
		query.Category = category
	}

	b.sendTraces(ctx, message, query, "Recent conversations")
}

func (b *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.sendMessage(message.Chat.ID, "Usage: /search <text>")
		return
	}

	b.sendTraces(ctx, message, models.TraceQuery{Search: text}, fmt.Sprintf("Conversations mentioning %q", text))
}

func (b *Bot) sendTraces(ctx context.Context, message *tgbotapi.Message, query models.TraceQuery, title string) {
	traces, err := b.backend.QueryTraces(ctx, query)
	if err != nil {
		b.logger.Error("Failed to query traces",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID),
			zap.String("category", string(query.Category)),
			zap.String("search", query.Search))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load conversations. "+err.Error())
		return
	}

	if len(traces) == 0 {
		b.sendMessage(message.Chat.ID, "No traces found.")
		return
	}

	b.sendMarkdown(message.Chat.ID, formatTraces(title, traces))
}

// parseCategoryArg matches a category name case-insensitively.
func parseCategoryArg(arg string) (models.Category, bool) {
	for _, c := range models.Categories {
		if strings.EqualFold(string(c), arg) {
			return c, true
		}
	}
	return "", false
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func formatStats(analytics *models.Analytics) string {
	breakdown := dashboard.Aggregate(analytics.ByCategory, models.Categories)

	var sb strings.Builder
	sb.WriteString("*Conversation analytics*\n\n")
	sb.WriteString(fmt.Sprintf("*Total traces:* %d\n", analytics.TotalTraces))
	sb.WriteString(fmt.Sprintf("*Avg response time:* %s\n\n",
		escapeMarkdown(dashboard.FormatLatency(analytics.AvgResponseTimeMS))))

	for _, s := range breakdown.Stats {
		sb.WriteString(formatStatLine(string(s.Category), s))
	}
	for _, s := range breakdown.Unclassified {
		sb.WriteString(formatStatLine("Unclassified ("+string(s.Category)+")", s))
	}
	return sb.String()
}

func formatStatLine(label string, s models.CategoryStat) string {
	return fmt.Sprintf("%s: %d \\(%s\\)\n",
		escapeMarkdown("#"+strings.ReplaceAll(label, " ", "_")),
		s.Count,
		escapeMarkdown(dashboard.FormatPercentage(s.Percentage)))
}

func formatTraces(title string, traces []models.Trace) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* \\(%d\\)\n\n", escapeMarkdown(title), len(traces)))

	for i, t := range traces {
		if i == listLimit {
			sb.WriteString(escapeMarkdown(fmt.Sprintf("…and %d more", len(traces)-listLimit)))
			break
		}
		sb.WriteString(fmt.Sprintf("*%s* · %s · %s\n",
			escapeMarkdown("#"+strings.ReplaceAll(string(t.Category), " ", "_")),
			escapeMarkdown(dashboard.FormatTimestamp(t.Timestamp.Time)),
			escapeMarkdown(dashboard.FormatLatency(float64(t.ResponseTimeMS)))))
		sb.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(dashboard.Truncate(t.UserMessage, dashboard.TruncateLimit))))
		sb.WriteString(escapeMarkdown(dashboard.Truncate(t.BotResponse, dashboard.TruncateLimit)) + "\n\n")
	}
	return sb.String()
}

// escapeMarkdown escapes the characters MarkdownV2 reserves.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
