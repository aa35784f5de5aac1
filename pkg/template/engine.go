// Package template implements the placeholder substitution used for
// notification titles, bodies, and provider request-body templates.
//
// Templates use {{variable}} placeholders. Rendering is a pure function:
// every occurrence of a known variable is replaced; unknown placeholders
// render as the empty string rather than surviving as literal text.
package template

import (
	"regexp"
	"time"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes every {{key}} placeholder in tpl with the matching
// value from vars. Placeholders without a matching variable are replaced
// with the empty string.
func Render(tpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		return vars[key]
	})
}

// EventVariables derives the template variable set from an inbound event.
// nick/user and message/text are aliases. The channel variable is the
// literal "PM" for private messages.
func EventVariables(e event.Event) map[string]string {
	channel := e.Channel
	if !e.IsChannel() {
		channel = "PM"
	}
	ts := e.Time()
	return map[string]string{
		"network":   e.Network,
		"channel":   channel,
		"nick":      e.Nick,
		"user":      e.Nick,
		"message":   e.Message,
		"text":      e.Message,
		"date":      ts.Format("Jan 2, 2006"),
		"time":      ts.Format("15:04"),
		"timestamp": ts.Format(time.RFC3339),
		"type":      string(e.Type),
	}
}

// Formatter renders notifications from events using a format config.
type Formatter struct {
	format config.FormatConfig
}

// NewFormatter creates a formatter for the given format templates.
func NewFormatter(format config.FormatConfig) Formatter {
	return Formatter{format: format}
}

// Title renders the notification title. The titleWithChannel template is
// used when the event occurred in a multi-user channel and that template
// is configured; otherwise the plain title template applies.
func (f Formatter) Title(e event.Event) string {
	tpl := f.format.Title
	if e.IsChannel() && f.format.TitleWithChannel != "" {
		tpl = f.format.TitleWithChannel
	}
	return Render(tpl, EventVariables(e))
}

// Message renders the notification body. The actionMessage template is
// used for action events when configured; otherwise the message template
// applies.
func (f Formatter) Message(e event.Event) string {
	tpl := f.format.Message
	if e.Type == event.TypeAction && f.format.ActionMessage != "" {
		tpl = f.format.ActionMessage
	}
	return Render(tpl, EventVariables(e))
}

// Notification renders the full notification for an event.
func (f Formatter) Notification(e event.Event) event.Notification {
	return event.Notification{
		Title:     f.Title(e),
		Message:   f.Message(e),
		Timestamp: e.Time(),
	}
}
