// Package notifier binds provider schemas to concrete send operations.
//
// A single Notifier type serves every provider: behavior differences live
// in the schema value object and the send strategy function, not in
// subclasses.
package notifier

import (
	"context"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/errors"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/schema"
)

// State is the notifier lifecycle state. There is no error state: invalid
// configuration simply stays in metadata mode.
type State int

const (
	// StateUninitialized means no schema has been bound yet.
	StateUninitialized State = iota
	// StateMetadata means the schema is loaded but the transport is not
	// ready; only schema introspection is available and Send fails.
	StateMetadata
	// StateActive means the config validated and the provider is enabled.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateMetadata:
		return "metadata"
	case StateActive:
		return "active"
	}
	return "uninitialized"
}

// SendFunc is the transport strategy bound to a schema. It receives the
// validated service config and the notification to deliver.
type SendFunc func(ctx context.Context, cfg config.ServiceConfig, n event.Notification) error

// Notifier is the runtime binding of a provider schema to a send
// capability for one identity's configuration. Notifiers are stateless
// across sends apart from the validated config, and are rebuilt on every
// configuration load rather than pooled.
type Notifier struct {
	schema *schema.Schema
	send   SendFunc
	cfg    config.ServiceConfig
	state  State
	log    logger.Logger
}

// SetResult reports the outcome of a field mutation.
type SetResult struct {
	// Field is the canonical name the mutation resolved to.
	Field string
	// AutoEnabled is true when the mutation completed the configuration
	// and the provider was switched on without an explicit enable step.
	AutoEnabled bool
}

// New creates a notifier for the given schema, transport, and service
// config. Optional fields absent from the config are populated with
// their schema defaults; required fields are never defaulted, since their
// absence must surface as a validation failure. A nil send function
// yields a metadata-mode notifier usable only for schema introspection.
func New(s *schema.Schema, send SendFunc, cfg config.ServiceConfig, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Discard
	}
	if cfg == nil {
		cfg = config.ServiceConfig{}
	}
	n := &Notifier{
		schema: s,
		send:   send,
		cfg:    cfg,
		state:  StateUninitialized,
		log:    log,
	}
	n.applyDefaults()
	n.refreshState()
	return n
}

// NewMetadata creates a notifier with schema information only. Send
// always fails with a NotConfigured error.
func NewMetadata(s *schema.Schema, log logger.Logger) *Notifier {
	return New(s, nil, nil, log)
}

func (n *Notifier) applyDefaults() {
	for _, name := range n.schema.FieldNames() {
		field, _ := n.schema.Field(name)
		if field.Required || field.Default == nil {
			continue
		}
		if _, ok := n.cfg.Get(name); !ok {
			n.cfg.Set(name, field.Default)
		}
	}
}

func (n *Notifier) refreshState() {
	if n.send != nil && n.cfg.Enabled() && n.Validate() {
		n.state = StateActive
	} else {
		n.state = StateMetadata
	}
}

// Name returns the provider name.
func (n *Notifier) Name() string { return n.schema.Name() }

// Schema returns the bound provider schema.
func (n *Notifier) Schema() *schema.Schema { return n.schema }

// Config returns the bound service config.
func (n *Notifier) Config() config.ServiceConfig { return n.cfg }

// State returns the current lifecycle state.
func (n *Notifier) State() State { return n.state }

// Active reports whether the notifier is validated and enabled.
func (n *Notifier) Active() bool { return n.state == StateActive }

// Validate silently checks every declared field against its descriptor.
func (n *Notifier) Validate() bool {
	return n.validate(nil)
}

// ValidateWithLogging performs the same check as Validate but reports
// every failing field's validation error to the given logger, stopping at
// the first failure.
func (n *Notifier) ValidateWithLogging(log logger.Logger) bool {
	if log == nil {
		log = n.log
	}
	return n.validate(log)
}

// validate checks fields in declaration order. With a logger it
// short-circuits on the first failure after reporting it.
func (n *Notifier) validate(log logger.Logger) bool {
	for _, name := range n.schema.FieldNames() {
		field, _ := n.schema.Field(name)
		value, present := n.cfg.Get(name)
		if !present {
			if field.Required {
				if log != nil {
					log.Warn(field.ValidationError, "provider", n.Name(), "field", name)
				}
				return false
			}
			continue
		}
		if !field.Validate(value) {
			if log != nil {
				log.Warn(field.ValidationError, "provider", n.Name(), "field", name)
			}
			return false
		}
	}
	return true
}

// Set resolves name case-insensitively to its canonical declared key and
// stores the value under it. Unknown names are rejected with an error
// listing the valid settings. When the mutation completes a previously
// incomplete configuration, the provider is auto-enabled and the result
// says so.
func (n *Notifier) Set(name string, value any) (SetResult, error) {
	canonical, ok := n.schema.Resolve(name)
	if !ok {
		return SetResult{}, errors.NewUnknownSetting(n.Name(), name, n.schema.FieldNames())
	}

	n.cfg.Set(canonical, value)
	result := SetResult{Field: canonical}

	if !n.cfg.Enabled() && n.send != nil && n.Validate() {
		n.cfg.SetEnabled(true)
		result.AutoEnabled = true
		n.log.Info("Provider auto-enabled", "provider", n.Name())
	}
	n.refreshState()
	return result, nil
}

// SetEnabled flips the provider enable flag and refreshes the state.
func (n *Notifier) SetEnabled(enabled bool) {
	n.cfg.SetEnabled(enabled)
	n.refreshState()
}

// Get returns the stored value for a field, resolving the name
// case-insensitively.
func (n *Notifier) Get(name string) (any, bool) {
	canonical, ok := n.schema.Resolve(name)
	if !ok {
		return nil, false
	}
	return n.cfg.Get(canonical)
}

// Send delivers the notification through the bound transport. Callers
// should check Active first; in metadata mode the call fails with a
// NotConfigured error.
func (n *Notifier) Send(ctx context.Context, notification event.Notification) error {
	if n.state != StateActive || n.send == nil {
		return errors.NewNotConfigured(n.Name())
	}
	if err := n.send(ctx, n.cfg, notification); err != nil {
		if errors.IsCode(err, errors.ErrTransportError) {
			return err
		}
		return errors.NewTransportError(n.Name(), err)
	}
	return nil
}
