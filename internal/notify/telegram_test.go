package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remote-job-scraper/internal/aggregator"
	"remote-job-scraper/internal/config"
	"remote-job-scraper/internal/runner"
	"remote-job-scraper/internal/store"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() runner.Report {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return runner.Report{
		ID:               uuid.New(),
		StartedAt:        start,
		FinishedAt:       start.Add(95 * time.Second),
		BrowserAvailable: false,
		Keywords: []runner.KeywordReport{
			{
				Keyword: "machine learning",
				Found:   12,
				Merge:   store.MergeResult{Submitted: 12, Inserted: 5, Updated: 7, Total: 40},
				Sources: []aggregator.SourceReport{
					{Source: "WeWorkRemotely", Status: aggregator.StatusOK, Found: 12},
					{Source: "RemoteOK", Status: aggregator.StatusFailed, Reason: "RemoteOK returned 403: Forbidden."},
					{Source: "Remote.co", Status: aggregator.StatusSkipped, Reason: aggregator.SkipReasonNoBrowser},
				},
			},
		},
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "Remote.co", want: `Remote\.co`},
		{in: "c++ (senior)", want: `c\+\+ \(senior\)`},
		{in: "snake_case*bold*", want: `snake\_case\*bold\*`},
		{in: `back\slash!`, want: `back\\slash\!`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeMarkdown(tt.in))
		})
	}
}

func TestFormatReport(t *testing.T) {
	text := FormatReport(sampleReport())

	assert.Contains(t, text, "✅ *Scrape finished*")
	assert.Contains(t, text, `🕒 2025\-03\-14 09:01 \(1m35s\)`)
	assert.Contains(t, text, "Browser unavailable")
	assert.Contains(t, text, "🔎 *machine learning*: 12 found, 5 new, 40 stored")
	assert.Contains(t, text, `❌ RemoteOK: RemoteOK returned 403: Forbidden\.`)
	assert.Contains(t, text, `⏭ Remote\.co: browser session unavailable`)
	assert.Contains(t, text, "📊 Total: 12 found, 5 new")
	assert.NotContains(t, text, "WeWorkRemotely")
}

func TestFormatReport_Interrupted(t *testing.T) {
	r := sampleReport()
	r.Interrupted = true
	r.BrowserAvailable = true

	text := FormatReport(r)
	assert.Contains(t, text, "⏹ *Scrape stopped*")
	assert.NotContains(t, text, "Browser unavailable")
}

func TestTelegramNotifier_Notify(t *testing.T) {
	fake := &fakeSender{}
	n := &TelegramNotifier{api: fake, chatID: 42, logger: discard()}

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, fake.sent, 1)

	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "machine learning")
}

func TestTelegramNotifier_SendFailure(t *testing.T) {
	fake := &fakeSender{err: errors.New("bad request")}
	n := &TelegramNotifier{api: fake, chatID: 42, logger: discard()}

	err := n.Notify(context.Background(), sampleReport())
	assert.ErrorContains(t, err, "bad request")
}

func TestTelegramNotifier_NotifyError(t *testing.T) {
	fake := &fakeSender{}
	n := &TelegramNotifier{api: fake, chatID: 42, logger: discard()}

	require.NoError(t, n.NotifyError(context.Background(), errors.New("run 1: save failed (disk full)")))
	require.Len(t, fake.sent, 1)
	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Equal(t, "❌ *Error*: run 1: save failed \\(disk full\\)", msg.Text)

	fake.err = errors.New("bad request")
	assert.ErrorContains(t, n.NotifyError(context.Background(), errors.New("x")), "bad request")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyError(ctx, errors.New("x")), context.Canceled)
	assert.Len(t, fake.sent, 2)
}

func TestNew_DisabledWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.TelegramToken = ""

	n, err := New(cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), sampleReport()))
	assert.NoError(t, n.NotifyError(context.Background(), errors.New("boom")))
}
