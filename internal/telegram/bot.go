package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-actuarylist-scraper/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// NotifySummary posts the outcome of a scrape run.
func (b *Bot) NotifySummary(ctx context.Context, s pipeline.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, FormatSummary(s))
	msg.ParseMode = "MarkdownV2"
	_, err := b.api.Send(msg)
	return err
}

func FormatSummary(s pipeline.Summary) string {
	var sb strings.Builder
	if s.Success {
		fmt.Fprintf(&sb, "✅ *%s scrape finished*\n", escapeMarkdown(s.Source))
	} else {
		fmt.Fprintf(&sb, "❌ *%s scrape failed*\n", escapeMarkdown(s.Source))
	}
	fmt.Fprintf(&sb, "📄 Pages: %d\n", s.PagesLoaded)
	fmt.Fprintf(&sb, "📦 Scraped: %d \\(%d duplicates skipped\\)\n", s.Scraped, s.MemoryDuplicates)
	fmt.Fprintf(&sb, "💾 Saved: %d, already stored: %d, errors: %d\n", s.Saved, s.StoreDuplicates, s.Errors)
	if s.Failed > 0 {
		fmt.Fprintf(&sb, "⚠️ Extraction failures: %d\n", s.Failed)
	}
	fmt.Fprintf(&sb, "⏱ %s\n", escapeMarkdown(s.Duration().Round(time.Second).String()))
	if s.Error != "" {
		fmt.Fprintf(&sb, "🛑 %s\n", escapeMarkdown(s.Error))
	}
	for _, l := range s.Sample {
		fmt.Fprintf(&sb, "• %s @ %s\n", escapeMarkdown(l.Title), escapeMarkdown(l.Company))
	}
	fmt.Fprintf(&sb, "🔖 Run: `%s`", s.RunID)
	return sb.String()
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}
