package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/schema"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramSchema describes the Telegram bot provider configuration.
var TelegramSchema = schema.New(
	"telegram",
	"Telegram",
	"#2ca5e0",
	"Messages via a Telegram bot. Create a bot with @BotFather and send it /start to obtain your chat id.",
	schema.FieldDef{Name: "botToken", Field: schema.Field{
		Required:        true,
		Example:         "110201543:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw",
		Validate:        schema.NonEmptyString,
		ValidationError: "botToken must be a Telegram bot token",
	}},
	schema.FieldDef{Name: "chatId", Field: schema.Field{
		Required:        true,
		Example:         "123456789",
		Validate:        schema.NonEmptyString,
		ValidationError: "chatId must be the numeric chat id to message",
	}},
	schema.FieldDef{Name: "apiUrl", Field: schema.Field{
		Default:         telegramAPIURL,
		Validate:        schema.HTTPURL,
		ValidationError: "apiUrl must be an http(s) URL",
	}},
)

// RegisterTelegram adds the Telegram provider to the registry.
func RegisterTelegram(r *notifier.Registry) error {
	return r.Register(TelegramSchema, func(cfg config.ServiceConfig, log logger.Logger) *notifier.Notifier {
		return notifier.New(TelegramSchema, sendTelegram, cfg, log)
	})
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func sendTelegram(ctx context.Context, cfg config.ServiceConfig, n event.Notification) error {
	payload, err := json.Marshal(telegramMessage{
		ChatID: cfg.GetString("chatId"),
		Text:   fmt.Sprintf("%s\n%s", n.Title, n.Message),
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage",
		strings.TrimSuffix(cfg.GetString("apiUrl"), "/"), cfg.GetString("botToken"))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(ctx, req)
}
