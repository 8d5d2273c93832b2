package notify

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI answers getMe and sendMessage like the Telegram Bot API
type fakeBotAPI struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/bottest-token/getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Quotes","username":"quotes_bot"}}`)
	case "/bottest-token/sendMessage":
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id": r.PostForm.Get("chat_id"),
			"text":    r.PostForm.Get("text"),
		})
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	default:
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestTelegram_NotifyRun(t *testing.T) {
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	tg, err := NewTelegram("test-token", 42, srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	err = tg.NotifyRun(Summary{
		BaseURL:    "https://quotes.toscrape.com/",
		Quotes:     100,
		Pages:      10,
		OutputPath: "result.csv",
		Duration:   3 * time.Second,
	})
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0]["chat_id"])
	assert.Contains(t, api.sent[0]["text"], "Quotes: 100")
	assert.Contains(t, api.sent[0]["text"], "result.csv")
}

func TestNewTelegram_BadToken(t *testing.T) {
	srv := httptest.NewServer(&fakeBotAPI{})
	defer srv.Close()

	_, err := NewTelegram("wrong-token", 42, srv.URL+"/bot%s/%s")
	assert.Error(t, err)
}

func TestFormatSummary(t *testing.T) {
	s := Summary{
		BaseURL:    "https://quotes.toscrape.com/",
		Quotes:     2,
		Pages:      1,
		OutputPath: "out/result.csv",
		Duration:   1500 * time.Millisecond,
	}

	text := FormatSummary(s)
	assert.Contains(t, text, "Quotes: 2")
	assert.Contains(t, text, "Pages: 1")
	assert.Contains(t, text, "Duration: 1.5s")
	assert.NotContains(t, text, "Sheet:")

	s.SheetURL = "https://docs.google.com/spreadsheets/d/abc/edit#gid=1"
	assert.Contains(t, FormatSummary(s), "Sheet: https://docs.google.com/spreadsheets/d/abc/edit#gid=1")
}
