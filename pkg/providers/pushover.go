package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/schema"
)

const pushoverAPIURL = "https://api.pushover.net/1/messages.json"

// PushoverSchema describes the Pushover provider configuration.
var PushoverSchema = schema.New(
	"pushover",
	"Pushover",
	"#249df1",
	"Mobile push notifications via pushover.net. Requires an application token and your user key.",
	schema.FieldDef{Name: "userKey", Field: schema.Field{
		Required:        true,
		Example:         "uQiRzpo4DXghDmr9QzzfQu27cmVRsG",
		Validate:        schema.NonEmptyString,
		ValidationError: "userKey must be your Pushover user key",
	}},
	schema.FieldDef{Name: "apiToken", Field: schema.Field{
		Required:        true,
		Example:         "azGDORePK8gMaC0QOYAMyEEuzJnyUi",
		Validate:        schema.NonEmptyString,
		ValidationError: "apiToken must be a Pushover application token",
	}},
	schema.FieldDef{Name: "priority", Field: schema.Field{
		Default:         "0",
		Validate:        schema.IntInRange(-2, 2),
		ValidationError: "priority must be between -2 and 2",
	}},
	schema.FieldDef{Name: "sound", Field: schema.Field{
		Default: "",
		Example: "pushover",
	}},
	schema.FieldDef{Name: "devices", Field: schema.Field{
		Default: "",
		Example: "phone,tablet",
	}},
	schema.FieldDef{Name: "apiUrl", Field: schema.Field{
		Default:         pushoverAPIURL,
		Validate:        schema.HTTPURL,
		ValidationError: "apiUrl must be an http(s) URL",
	}},
)

// RegisterPushover adds the Pushover provider to the registry.
func RegisterPushover(r *notifier.Registry) error {
	return r.Register(PushoverSchema, func(cfg config.ServiceConfig, log logger.Logger) *notifier.Notifier {
		return notifier.New(PushoverSchema, sendPushover, cfg, log)
	})
}

func sendPushover(ctx context.Context, cfg config.ServiceConfig, n event.Notification) error {
	form := url.Values{}
	form.Set("token", cfg.GetString("apiToken"))
	form.Set("user", cfg.GetString("userKey"))
	form.Set("title", n.Title)
	form.Set("message", n.Message)
	form.Set("timestamp", fmt.Sprintf("%d", n.Timestamp.Unix()))
	if v := cfg.GetString("priority"); v != "" && v != "0" {
		form.Set("priority", v)
	}
	if v := cfg.GetString("sound"); v != "" {
		form.Set("sound", v)
	}
	if v := cfg.GetString("devices"); v != "" {
		form.Set("device", v)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.GetString("apiUrl"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(ctx, req)
}
