package notify

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Summary describes a finished crawl
type Summary struct {
	BaseURL    string
	Quotes     int
	Pages      int
	OutputPath string
	SheetURL   string // empty when no sheet was written
	Duration   time.Duration
}

// Telegram sends run summaries to one chat
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authorizes the bot. endpoint overrides the Bot API URL format
// (tgbotapi.APIEndpoint) and may be empty.
func NewTelegram(token string, chatID int64, endpoint string) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	log.Debugf("Authorized on account %s", bot.Self.UserName)

	return &Telegram{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// NotifyRun sends the summary of a finished crawl
func (t *Telegram) NotifyRun(s Summary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(s))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// FormatSummary renders the notification text
func FormatSummary(s Summary) string {
	text := fmt.Sprintf(
		"✅ Crawl finished\n\n"+
			"🌐 Source: %s\n"+
			"💬 Quotes: %d\n"+
			"📄 Pages: %d\n"+
			"📁 Output: %s\n"+
			"⏱ Duration: %s",
		s.BaseURL, s.Quotes, s.Pages, s.OutputPath, s.Duration.Round(time.Millisecond))

	if s.SheetURL != "" {
		text += fmt.Sprintf("\n📊 Sheet: %s", s.SheetURL)
	}
	return text
}
