// Package dispatch implements the notification dispatch engine: event
// filtering, deduplication, formatting, and concurrent fan-out to every
// active notifier.
package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/dedup"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/receipt"
	"github.com/kart-io/chatpush/pkg/template"
)

// dedupPrefixLen is how much of the message participates in the dedup
// key. Two long messages sharing this prefix collide on purpose; that is
// a documented limitation of the key, not a bug.
const dedupPrefixLen = 50

// defaultSendTimeout bounds each provider send during fan-out.
const defaultSendTimeout = 10 * time.Second

// Engine owns one identity's notification pipeline. Engines are not
// shared across identities; the dedup store and notifier map belong
// exclusively to their engine.
type Engine struct {
	identity string
	store    config.Store
	registry *notifier.Registry

	mu        sync.Mutex
	cfg       *config.NotificationConfig
	notifiers map[string]*notifier.Notifier
	formatter template.Formatter

	dedup       dedup.Store
	ownsDedup   bool
	sendTimeout time.Duration
	tracer      trace.Tracer
	log         logger.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithDedupStore replaces the default in-memory bulk-clear dedup store.
func WithDedupStore(store dedup.Store) Option {
	return func(e *Engine) {
		e.dedup = store
		e.ownsDedup = false
	}
}

// WithSendTimeout bounds each provider send attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(e *Engine) { e.sendTimeout = timeout }
}

// WithTracer enables tracing of dispatch and provider sends.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// New creates an engine for one identity, loading its configuration from
// the store and building a notifier per configured service.
func New(identity string, store config.Store, registry *notifier.Registry, opts ...Option) *Engine {
	e := &Engine{
		identity:    identity,
		store:       store,
		registry:    registry,
		sendTimeout: defaultSendTimeout,
		tracer:      noop.NewTracerProvider().Tracer("chatpush"),
		log:         logger.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dedup == nil {
		e.dedup = dedup.NewMemoryStore(dedup.DefaultWindow)
		e.ownsDedup = true
	}
	e.Reload()
	return e
}

// Identity returns the configuration scope this engine serves.
func (e *Engine) Identity() string { return e.identity }

// Reload re-reads the identity's configuration and rebuilds the notifier
// set. Used at startup and when the backing store reports a change.
func (e *Engine) Reload() {
	cfg := e.store.Load(e.identity)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(cfg)
}

// apply installs cfg and rebuilds notifiers. Caller holds e.mu.
func (e *Engine) apply(cfg *config.NotificationConfig) {
	cfg.Normalize()
	e.cfg = cfg
	e.formatter = template.NewFormatter(cfg.Format)
	e.notifiers = make(map[string]*notifier.Notifier, len(cfg.Services))
	for name, svc := range cfg.Services {
		n, err := e.registry.Build(name, svc, e.log)
		if err != nil {
			e.log.Warn("Skipping unknown provider in config", "provider", name)
			continue
		}
		e.notifiers[name] = n
	}
}

// ShouldNotify applies the filter policy in fixed order: the away filter
// first, then the channel white/blacklist gate, then the highlight check.
// Self events and unknown event types are rejected defensively even
// though the host filters them upstream.
func (e *Engine) ShouldNotify(ev event.Event, away bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg

	if !cfg.Enabled || ev.Self || !ev.Type.Known() {
		return false
	}
	if cfg.Filters.OnlyWhenAway && !away {
		return false
	}
	if !cfg.Filters.Channels.Allows(ev.Channel) {
		return false
	}
	return cfg.Filters.Highlights && ev.Highlight
}

// DedupKey derives a deterministic key from the event's network, channel,
// nick, and the first 50 characters of the message.
func (e *Engine) DedupKey(ev event.Event) string {
	msg := ev.Message
	// Truncate by runes so multibyte text keys on characters, not bytes.
	if runes := []rune(msg); len(runes) > dedupPrefixLen {
		msg = string(runes[:dedupPrefixLen])
	}
	h := sha256.New()
	for _, part := range []string{ev.Network, ev.Channel, ev.Nick, msg} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// ProcessMessage runs the full pipeline for one event. It returns nil
// when the event is filtered out or was already seen within the dedup
// window. Otherwise it formats the notification, fans out concurrently to
// every active notifier, waits for all attempts to settle, and returns a
// receipt naming the providers that succeeded. A failing provider never
// affects its siblings and never surfaces as an error from this method.
func (e *Engine) ProcessMessage(ctx context.Context, ev event.Event, away bool) *receipt.Receipt {
	if !e.ShouldNotify(ev, away) {
		return nil
	}
	if e.dedup.CheckAndRecord(ctx, e.DedupKey(ev)) {
		e.log.Debug("Duplicate event suppressed", "network", ev.Network, "channel", ev.Channel)
		return nil
	}

	e.mu.Lock()
	formatter := e.formatter
	active := make([]*notifier.Notifier, 0, len(e.notifiers))
	for _, n := range e.notifiers {
		if n.Active() {
			active = append(active, n)
		}
	}
	e.mu.Unlock()

	notification := formatter.Notification(ev)

	ctx, span := e.tracer.Start(ctx, "dispatch.process",
		trace.WithAttributes(
			attribute.String("chatpush.network", ev.Network),
			attribute.String("chatpush.type", string(ev.Type)),
			attribute.Int("chatpush.providers", len(active)),
		))
	defer span.End()

	return e.fanOut(ctx, notification, active)
}

// fanOut sends the notification to every notifier concurrently and
// collects all outcomes. It never short-circuits on failure or success.
func (e *Engine) fanOut(ctx context.Context, n event.Notification, targets []*notifier.Notifier) *receipt.Receipt {
	rcpt := receipt.New(n)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, target := range targets {
		wg.Add(1)
		go func(target *notifier.Notifier) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
			defer cancel()

			sendCtx, span := e.tracer.Start(sendCtx, "dispatch.send",
				trace.WithAttributes(attribute.String("chatpush.provider", target.Name())))
			defer span.End()

			start := time.Now()
			err := target.Send(sendCtx, n)
			result := receipt.ProviderResult{
				Provider: target.Name(),
				Success:  err == nil,
				Duration: time.Since(start),
			}
			if err != nil {
				result.Error = err.Error()
				span.RecordError(err)
				e.log.Error("Provider send failed", "provider", target.Name(), "error", err)
			}

			mu.Lock()
			rcpt.AddResult(result)
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	return rcpt
}

// Notifier returns the notifier for the named provider, creating one in
// metadata mode (and its service entry) when the provider is registered
// but not yet configured.
func (e *Engine) Notifier(name string) (*notifier.Notifier, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notifierLocked(name)
}

// notifierLocked is Notifier without locking. Caller holds e.mu.
func (e *Engine) notifierLocked(name string) (*notifier.Notifier, error) {
	if n, ok := e.notifiers[name]; ok {
		return n, nil
	}
	svc := e.cfg.Service(name)
	n, err := e.registry.Build(name, svc, e.log)
	if err != nil {
		return nil, err
	}
	e.notifiers[name] = n
	return n, nil
}

// Close releases engine-owned resources.
func (e *Engine) Close() error {
	if e.ownsDedup {
		return e.dedup.Close()
	}
	return nil
}
