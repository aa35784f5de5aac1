package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/errors"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/receipt"
	"github.com/kart-io/chatpush/pkg/template"
)

// Configuration command surface. Every mutation persists the document
// through the config store. When persistence fails the in-memory state is
// deliberately kept (not rolled back) and the failure is surfaced to the
// caller; a later read in the same process may therefore observe a value
// that was never durably saved.

// persist saves the current config, translating a failed save into a
// PersistenceFailure error. It hands the store a deep snapshot taken
// under the engine lock, so a concurrent mutation cannot race with the
// store's marshalling.
func (e *Engine) persist() error {
	e.mu.Lock()
	cfg := e.cfg.Clone()
	e.mu.Unlock()
	if !e.store.Save(e.identity, cfg) {
		return errors.NewPersistenceFailure(e.identity)
	}
	return nil
}

// SetEnabled switches notifications on or off globally.
func (e *Engine) SetEnabled(enabled bool) error {
	e.mu.Lock()
	e.cfg.Enabled = enabled
	e.mu.Unlock()
	return e.persist()
}

// SetProviderEnabled switches one provider on or off.
func (e *Engine) SetProviderEnabled(provider string, enabled bool) error {
	e.mu.Lock()
	n, err := e.notifierLocked(provider)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	n.SetEnabled(enabled)
	e.mu.Unlock()
	return e.persist()
}

// SetField stores a field value on the named provider. The field name is
// resolved case-insensitively against the provider's schema; unknown
// names are rejected with the list of valid settings and leave the
// document unchanged. A mutation that completes the configuration
// auto-enables the provider, reported through the result.
func (e *Engine) SetField(provider, field string, value any) (notifier.SetResult, error) {
	e.mu.Lock()
	n, err := e.notifierLocked(provider)
	if err != nil {
		e.mu.Unlock()
		return notifier.SetResult{}, err
	}
	result, err := n.Set(field, value)
	e.mu.Unlock()
	if err != nil {
		return result, err
	}
	return result, e.persist()
}

// SetFilter updates one boolean filter flag by name.
func (e *Engine) SetFilter(name string, value bool) error {
	e.mu.Lock()
	switch name {
	case "onlyWhenAway":
		e.cfg.Filters.OnlyWhenAway = value
	case "highlights":
		e.cfg.Filters.Highlights = value
	default:
		e.mu.Unlock()
		return errors.New(errors.ErrInvalidConfig,
			fmt.Sprintf("unknown filter %q, valid filters: onlyWhenAway, highlights", name))
	}
	e.mu.Unlock()
	return e.persist()
}

// SetChannelFilter replaces the channel whitelist and blacklist.
func (e *Engine) SetChannelFilter(whitelist, blacklist []string) error {
	e.mu.Lock()
	if len(whitelist) == 0 && len(blacklist) == 0 {
		e.cfg.Filters.Channels = nil
	} else {
		e.cfg.Filters.Channels = &config.ChannelFilter{
			Whitelist: whitelist,
			Blacklist: blacklist,
		}
	}
	e.mu.Unlock()
	return e.persist()
}

// SetFormat updates one format template by name.
func (e *Engine) SetFormat(name, tpl string) error {
	e.mu.Lock()
	switch name {
	case "title":
		e.cfg.Format.Title = tpl
	case "titleWithChannel":
		e.cfg.Format.TitleWithChannel = tpl
	case "message":
		e.cfg.Format.Message = tpl
	case "actionMessage":
		e.cfg.Format.ActionMessage = tpl
	default:
		e.mu.Unlock()
		return errors.New(errors.ErrInvalidConfig,
			fmt.Sprintf("unknown format %q, valid formats: title, titleWithChannel, message, actionMessage", name))
	}
	e.formatter = template.NewFormatter(e.cfg.Format)
	e.mu.Unlock()
	return e.persist()
}

// ResetFormat restores the built-in format templates.
func (e *Engine) ResetFormat() error {
	e.mu.Lock()
	e.cfg.Format = config.DefaultFormat()
	e.formatter = template.NewFormatter(e.cfg.Format)
	e.mu.Unlock()
	return e.persist()
}

// TestSend pushes a synthetic notification through the fan-out path,
// optionally scoped to a single provider. It bypasses filtering and
// deduplication but exercises the real transports.
func (e *Engine) TestSend(ctx context.Context, provider string) (*receipt.Receipt, error) {
	e.mu.Lock()
	targets := make([]*notifier.Notifier, 0, len(e.notifiers))
	for name, n := range e.notifiers {
		if provider != "" && name != provider {
			continue
		}
		if n.Active() {
			targets = append(targets, n)
		}
	}
	e.mu.Unlock()

	if provider != "" && !e.registry.Has(provider) {
		return nil, errors.NewUnknownProvider(provider)
	}

	notification := event.Notification{
		Title:     "chatpush",
		Message:   "This is a test notification.",
		Timestamp: time.Now(),
	}
	return e.fanOut(ctx, notification, targets), nil
}

// ProviderStatus describes one provider's runtime state for display.
type ProviderStatus struct {
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
	Enabled     bool   `json:"enabled"`
}

// Status summarizes the engine state for the status command.
type Status struct {
	Identity  string              `json:"identity"`
	Enabled   bool                `json:"enabled"`
	Filters   config.FilterConfig `json:"filters"`
	Providers []ProviderStatus    `json:"providers"`
}

// Status reports global enablement, filters, and the state of every
// configured provider.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	providers := make([]ProviderStatus, 0, len(e.notifiers))
	for name, n := range e.notifiers {
		providers = append(providers, ProviderStatus{
			Provider:    name,
			DisplayName: n.Schema().DisplayName(),
			State:       n.State().String(),
			Enabled:     n.Config().Enabled(),
		})
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Provider < providers[j].Provider
	})

	return Status{
		Identity:  e.identity,
		Enabled:   e.cfg.Enabled,
		Filters:   e.cfg.Filters,
		Providers: providers,
	}
}
