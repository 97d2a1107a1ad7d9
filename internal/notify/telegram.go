// Package notify sends run summaries to Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/runner"
)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier reports finished runs and runs that ended in an error.
type Notifier interface {
	runner.Notifier
	NotifyError(ctx context.Context, err error) error
}

type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *slog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		logger: logger.With("component", "notify"),
	}, nil
}

// New returns a Telegram notifier when the config carries credentials and
// a Nop notifier otherwise.
func New(cfg *config.Config, logger *slog.Logger) (Notifier, error) {
	if !cfg.NotificationsEnabled() {
		logger.Info("telegram notifications disabled")
		return Nop{}, nil
	}
	return NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
}

func (n *TelegramNotifier) Notify(ctx context.Context, report runner.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatReport(report))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send run summary: %w", err)
	}
	n.logger.Info("run summary sent", "run_id", report.ID.String())
	return nil
}

func (n *TelegramNotifier) NotifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	msg := tgbotapi.NewMessage(n.chatID, "❌ *Error*: "+escapeMarkdown(truncate(err.Error(), 500)))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, sendErr := n.api.Send(msg); sendErr != nil {
		return fmt.Errorf("send error alert: %w", sendErr)
	}
	return nil
}

// FormatReport renders report as a MarkdownV2 message.
func FormatReport(report runner.Report) string {
	var b strings.Builder

	status := "✅ *Scrape finished*"
	if report.Interrupted {
		status = "⏹ *Scrape stopped*"
	}
	b.WriteString(status + "\n")
	fmt.Fprintf(&b, "🕒 %s \\(%s\\)\n",
		escapeMarkdown(report.FinishedAt.Format("2006-01-02 15:04")),
		escapeMarkdown(report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String()))
	if !report.BrowserAvailable {
		b.WriteString("⚠️ Browser unavailable, board sources only\n")
	}

	for _, kr := range report.Keywords {
		fmt.Fprintf(&b, "\n🔎 *%s*: %d found, %d new, %d stored\n",
			escapeMarkdown(kr.Keyword), kr.Found, kr.Merge.Inserted, kr.Merge.Total)
		for _, s := range kr.Failed() {
			fmt.Fprintf(&b, "  ❌ %s: %s\n", escapeMarkdown(s.Source), escapeMarkdown(truncate(s.Reason, 120)))
		}
		for _, s := range kr.Skipped() {
			fmt.Fprintf(&b, "  ⏭ %s: %s\n", escapeMarkdown(s.Source), escapeMarkdown(s.Reason))
		}
		if kr.Error != "" {
			fmt.Fprintf(&b, "  💥 save failed: %s\n", escapeMarkdown(truncate(kr.Error, 120)))
		}
	}

	fmt.Fprintf(&b, "\n📊 Total: %d found, %d new", report.TotalFound(), report.TotalInserted())
	return b.String()
}

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// Nop drops every report.
type Nop struct{}

func (Nop) Notify(context.Context, runner.Report) error { return nil }

func (Nop) NotifyError(context.Context, error) error { return nil }
