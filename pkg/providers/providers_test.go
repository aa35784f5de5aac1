package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
)

func testNotification() event.Notification {
	return event.Notification{
		Title:     "freenode - #test",
		Message:   "<bob> hello world",
		Timestamp: time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
	}
}

func TestRegisterAddsAllProviders(t *testing.T) {
	reg := notifier.NewRegistry(logger.Discard)
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{"pushover", "gotify", "telegram", "webhook"}, reg.Names())
}

func TestPushoverSend(t *testing.T) {
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{
		"userKey":  "user-1",
		"apiToken": "token-1",
		"priority": "1",
		"sound":    "bell",
		"apiUrl":   server.URL,
	}
	require.NoError(t, sendPushover(context.Background(), cfg, testNotification()))

	assert.Equal(t, "token-1", gotForm["token"][0])
	assert.Equal(t, "user-1", gotForm["user"][0])
	assert.Equal(t, "freenode - #test", gotForm["title"][0])
	assert.Equal(t, "<bob> hello world", gotForm["message"][0])
	assert.Equal(t, "1", gotForm["priority"][0])
	assert.Equal(t, "bell", gotForm["sound"][0])
}

func TestPushoverServerErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{"userKey": "u", "apiToken": "t", "apiUrl": server.URL}
	err := sendPushover(context.Background(), cfg, testNotification())
	assert.Error(t, err)
}

func TestGotifySend(t *testing.T) {
	var gotPath, gotKey string
	var gotBody gotifyMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Gotify-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{
		"url":      server.URL + "/",
		"token":    "app-token",
		"priority": "7",
	}
	require.NoError(t, sendGotify(context.Background(), cfg, testNotification()))

	assert.Equal(t, "/message", gotPath)
	assert.Equal(t, "app-token", gotKey)
	assert.Equal(t, "freenode - #test", gotBody.Title)
	assert.Equal(t, 7, gotBody.Priority)
}

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotBody telegramMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{
		"botToken": "bot-token",
		"chatId":   "42",
		"apiUrl":   server.URL,
	}
	require.NoError(t, sendTelegram(context.Background(), cfg, testNotification()))

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "42", gotBody.ChatID)
	assert.Contains(t, gotBody.Text, "freenode - #test")
	assert.Contains(t, gotBody.Text, "<bob> hello world")
}

func TestWebhookDefaultBody(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{
		"url":          server.URL,
		"bodyTemplate": defaultWebhookBody,
	}
	require.NoError(t, sendWebhook(context.Background(), cfg, testNotification()))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "freenode - #test", gotBody["title"])
	assert.Equal(t, "<bob> hello world", gotBody["message"])
	assert.Equal(t, "2024-03-09T14:30:00Z", gotBody["timestamp"])
}

func TestWebhookEscapesJSONSpecials(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := testNotification()
	n.Message = `<bob> say "hi"` + "\nnewline"
	cfg := config.ServiceConfig{"url": server.URL, "bodyTemplate": defaultWebhookBody}
	require.NoError(t, sendWebhook(context.Background(), cfg, n))
	assert.Equal(t, n.Message, gotBody["message"])
}

func TestWebhookCustomMethodAndHeaders(t *testing.T) {
	var gotMethod, gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.ServiceConfig{
		"url":          server.URL,
		"method":       "put",
		"contentType":  "text/plain",
		"headers":      `{"Authorization":"Bearer abc","Content-Type":"application/xml"}`,
		"bodyTemplate": "{{title}}: {{message}}",
	}
	require.NoError(t, sendWebhook(context.Background(), cfg, testNotification()))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "Bearer abc", gotAuth)
	// Extra headers merge over the defaults.
	assert.Equal(t, "application/xml", gotContentType)
}

func TestProviderSchemasDeclareRequiredFields(t *testing.T) {
	tests := []struct {
		schemaName string
		required   []string
	}{
		{"pushover", []string{"userKey", "apiToken"}},
		{"gotify", []string{"url", "token"}},
		{"telegram", []string{"botToken", "chatId"}},
		{"webhook", []string{"url"}},
	}

	reg := notifier.NewRegistry(logger.Discard)
	require.NoError(t, Register(reg))

	for _, tt := range tests {
		s, err := reg.Schema(tt.schemaName)
		require.NoError(t, err)
		for _, name := range tt.required {
			f, ok := s.Field(name)
			require.True(t, ok, "%s.%s", tt.schemaName, name)
			assert.True(t, f.Required, "%s.%s should be required", tt.schemaName, name)
		}
	}
}

func TestNotifierEndToEndThroughRegistry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := notifier.NewRegistry(logger.Discard)
	require.NoError(t, Register(reg))

	cfg := config.ServiceConfig{
		"enabled": true,
		"url":     server.URL,
	}
	n, err := reg.Build("webhook", cfg, logger.Discard)
	require.NoError(t, err)
	require.True(t, n.Active())
	assert.NoError(t, n.Send(context.Background(), testNotification()))
}
