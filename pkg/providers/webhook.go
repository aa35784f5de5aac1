package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/schema"
	"github.com/kart-io/chatpush/pkg/template"
)

const defaultWebhookBody = `{"title":"{{title}}","message":"{{message}}","timestamp":"{{timestamp}}"}`

// WebhookSchema describes the generic webhook provider. The request body
// is fully template-driven.
var WebhookSchema = schema.New(
	"webhook",
	"Webhook",
	"#888888",
	"POST notifications to any HTTP endpoint. The body template supports {{title}}, {{message}} and {{timestamp}}.",
	schema.FieldDef{Name: "url", Field: schema.Field{
		Required:        true,
		Example:         "https://example.com/hooks/chat",
		Validate:        schema.HTTPURL,
		ValidationError: "url must be an http(s) URL",
	}},
	schema.FieldDef{Name: "method", Field: schema.Field{
		Default:         "POST",
		Validate:        schema.OneOf("GET", "POST", "PUT", "PATCH"),
		ValidationError: "method must be one of GET, POST, PUT, PATCH",
	}},
	schema.FieldDef{Name: "contentType", Field: schema.Field{
		Default: "application/json",
		Example: "application/json",
	}},
	schema.FieldDef{Name: "headers", Field: schema.Field{
		Default:         "",
		Example:         `{"Authorization":"Bearer token"}`,
		Validate:        schema.JSONObject,
		ValidationError: "headers must be a JSON object of header names to values",
	}},
	schema.FieldDef{Name: "bodyTemplate", Field: schema.Field{
		Default: defaultWebhookBody,
	}},
)

// RegisterWebhook adds the generic webhook provider to the registry.
func RegisterWebhook(r *notifier.Registry) error {
	return r.Register(WebhookSchema, func(cfg config.ServiceConfig, log logger.Logger) *notifier.Notifier {
		return notifier.New(WebhookSchema, sendWebhook, cfg, log)
	})
}

func sendWebhook(ctx context.Context, cfg config.ServiceConfig, n event.Notification) error {
	contentType := cfg.GetString("contentType")
	if contentType == "" {
		contentType = "application/json"
	}

	title, message := n.Title, n.Message
	if strings.Contains(contentType, "json") {
		title, message = jsonEscape(title), jsonEscape(message)
	}
	body := template.Render(cfg.GetString("bodyTemplate"), map[string]string{
		"title":     title,
		"message":   message,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	})

	method := strings.ToUpper(cfg.GetString("method"))
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequest(method, cfg.GetString("url"), strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	// Extra headers are merged over the defaults.
	if raw := cfg.GetString("headers"); strings.TrimSpace(raw) != "" {
		var extra map[string]string
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return fmt.Errorf("invalid headers: %w", err)
		}
		for k, v := range extra {
			req.Header.Set(k, v)
		}
	}
	return doRequest(ctx, req)
}

// jsonEscape makes a value safe for interpolation into the default JSON
// body template without double-quoting it.
func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
