package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/schema"
)

// GotifySchema describes the Gotify provider configuration.
var GotifySchema = schema.New(
	"gotify",
	"Gotify",
	"#4e9a06",
	"Push notifications to a self-hosted Gotify server.",
	schema.FieldDef{Name: "url", Field: schema.Field{
		Required:        true,
		Example:         "https://gotify.example.com",
		Validate:        schema.HTTPURL,
		ValidationError: "url must be the http(s) base URL of your Gotify server",
	}},
	schema.FieldDef{Name: "token", Field: schema.Field{
		Required:        true,
		Example:         "A4QrpKbDjCbx5JG",
		Validate:        schema.NonEmptyString,
		ValidationError: "token must be a Gotify application token",
	}},
	schema.FieldDef{Name: "priority", Field: schema.Field{
		Default:         "5",
		Validate:        schema.IntInRange(0, 10),
		ValidationError: "priority must be between 0 and 10",
	}},
)

// RegisterGotify adds the Gotify provider to the registry.
func RegisterGotify(r *notifier.Registry) error {
	return r.Register(GotifySchema, func(cfg config.ServiceConfig, log logger.Logger) *notifier.Notifier {
		return notifier.New(GotifySchema, sendGotify, cfg, log)
	})
}

type gotifyMessage struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

func sendGotify(ctx context.Context, cfg config.ServiceConfig, n event.Notification) error {
	priority, _ := strconv.Atoi(cfg.GetString("priority"))
	payload, err := json.Marshal(gotifyMessage{
		Title:    n.Title,
		Message:  n.Message,
		Priority: priority,
	})
	if err != nil {
		return err
	}

	endpoint := strings.TrimSuffix(cfg.GetString("url"), "/") + "/message"
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gotify-Key", cfg.GetString("token"))
	return doRequest(ctx, req)
}
