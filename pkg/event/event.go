// Package event defines the inbound chat event consumed by the dispatch
// engine and the notification it produces.
package event

import (
	"strings"
	"time"
)

// Type classifies an inbound chat event.
type Type string

const (
	TypeMessage Type = "message"
	TypeAction  Type = "action"
	TypeNotice  Type = "notice"
)

// Known reports whether t is one of the event types the engine handles.
func (t Type) Known() bool {
	switch t {
	case TypeMessage, TypeAction, TypeNotice:
		return true
	}
	return false
}

// Event is one chat message as delivered by the host client. The host is
// responsible for highlight detection; the engine never re-matches
// highlight words.
type Event struct {
	Type      Type      `json:"type"`
	Network   string    `json:"network"`
	Channel   string    `json:"channel"`
	Nick      string    `json:"nick"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Highlight bool      `json:"highlight"`
	Self      bool      `json:"self"`
}

// IsChannel reports whether the event occurred in a multi-user channel,
// determined by the channel-name prefix convention. Anything else is
// treated as a private message.
func (e Event) IsChannel() bool {
	return strings.HasPrefix(e.Channel, "#") || strings.HasPrefix(e.Channel, "&")
}

// Time returns the event timestamp, defaulting to now when unset.
func (e Event) Time() time.Time {
	if e.Timestamp.IsZero() {
		return time.Now()
	}
	return e.Timestamp
}

// Notification is the formatted output handed to providers. Immutable
// once constructed.
type Notification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
