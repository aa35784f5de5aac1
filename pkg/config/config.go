// Package config provides the per-identity notification configuration
// model and its persistence.
package config

import "strings"

// Default format templates. Placeholders use {{variable}} syntax and are
// rendered by the template package.
const (
	DefaultTitle            = "{{network}}"
	DefaultTitleWithChannel = "{{network}} - {{channel}}"
	DefaultMessage          = "<{{nick}}> {{message}}"
	DefaultActionMessage    = "* {{nick}} {{message}}"
)

// NotificationConfig is the top-level configuration document, one per
// identity. After Normalize it is always fully populated; missing or
// malformed fields are replaced by defaults, never left undefined.
type NotificationConfig struct {
	Enabled  bool                     `json:"enabled"`
	Services map[string]ServiceConfig `json:"services"`
	Filters  FilterConfig             `json:"filters"`
	Format   FormatConfig             `json:"format"`
}

// FilterConfig controls which events produce notifications.
type FilterConfig struct {
	OnlyWhenAway bool           `json:"onlyWhenAway"`
	Highlights   bool           `json:"highlights"`
	Channels     *ChannelFilter `json:"channels,omitempty"`
}

// ChannelFilter gates the highlight check per channel. A blacklisted
// channel never notifies; a non-empty whitelist restricts notifications
// to the listed channels.
type ChannelFilter struct {
	Whitelist []string `json:"whitelist,omitempty"`
	Blacklist []string `json:"blacklist,omitempty"`
}

// Allows reports whether the filter permits notifications for the given
// channel. Channel names are compared case-insensitively.
func (c *ChannelFilter) Allows(channel string) bool {
	if c == nil {
		return true
	}
	for _, blocked := range c.Blacklist {
		if strings.EqualFold(blocked, channel) {
			return false
		}
	}
	if len(c.Whitelist) > 0 {
		for _, allowed := range c.Whitelist {
			if strings.EqualFold(allowed, channel) {
				return true
			}
		}
		return false
	}
	return true
}

// FormatConfig holds the four notification templates.
type FormatConfig struct {
	Title            string `json:"title"`
	TitleWithChannel string `json:"titleWithChannel"`
	Message          string `json:"message"`
	ActionMessage    string `json:"actionMessage"`
}

// DefaultFormat returns the built-in format templates.
func DefaultFormat() FormatConfig {
	return FormatConfig{
		Title:            DefaultTitle,
		TitleWithChannel: DefaultTitleWithChannel,
		Message:          DefaultMessage,
		ActionMessage:    DefaultActionMessage,
	}
}

// Default returns a fully populated configuration with no services.
func Default() *NotificationConfig {
	return &NotificationConfig{
		Enabled:  true,
		Services: make(map[string]ServiceConfig),
		Filters: FilterConfig{
			OnlyWhenAway: false,
			Highlights:   true,
		},
		Format: DefaultFormat(),
	}
}

// Normalize fills missing fields with defaults so the document is always
// fully populated after validation. Safe to call repeatedly.
func (c *NotificationConfig) Normalize() {
	if c.Services == nil {
		c.Services = make(map[string]ServiceConfig)
	}
	for name, svc := range c.Services {
		if svc == nil {
			c.Services[name] = ServiceConfig{}
		}
	}
	if c.Format.Title == "" {
		c.Format.Title = DefaultTitle
	}
	if c.Format.TitleWithChannel == "" {
		c.Format.TitleWithChannel = DefaultTitleWithChannel
	}
	if c.Format.Message == "" {
		c.Format.Message = DefaultMessage
	}
	if c.Format.ActionMessage == "" {
		c.Format.ActionMessage = DefaultActionMessage
	}
}

// Clone returns a deep copy of the document. Mutating the original
// afterwards never affects the copy, so a clone taken under a lock can
// be marshalled or persisted without further synchronization.
func (c *NotificationConfig) Clone() *NotificationConfig {
	out := &NotificationConfig{
		Enabled:  c.Enabled,
		Services: make(map[string]ServiceConfig, len(c.Services)),
		Filters:  c.Filters,
		Format:   c.Format,
	}
	for name, svc := range c.Services {
		out.Services[name] = svc.Clone()
	}
	if c.Filters.Channels != nil {
		out.Filters.Channels = &ChannelFilter{
			Whitelist: append([]string(nil), c.Filters.Channels.Whitelist...),
			Blacklist: append([]string(nil), c.Filters.Channels.Blacklist...),
		}
	}
	return out
}

// Service returns the config for the named provider, creating an empty
// one if absent.
func (c *NotificationConfig) Service(name string) ServiceConfig {
	if svc, ok := c.Services[name]; ok {
		return svc
	}
	svc := ServiceConfig{}
	c.Services[name] = svc
	return svc
}
