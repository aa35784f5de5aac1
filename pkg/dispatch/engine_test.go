package dispatch

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/event"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/notifier"
	"github.com/kart-io/chatpush/pkg/schema"
)

// memStore is an in-memory config store for tests.
type memStore struct {
	configs  map[string]*config.NotificationConfig
	saves    int
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{configs: make(map[string]*config.NotificationConfig)}
}

func (m *memStore) Load(identity string) *config.NotificationConfig {
	if cfg, ok := m.configs[identity]; ok {
		return cfg
	}
	return config.Default()
}

func (m *memStore) Save(identity string, cfg *config.NotificationConfig) bool {
	if m.failSave {
		return false
	}
	m.saves++
	m.configs[identity] = cfg
	return true
}

func mockSchema(name string) *schema.Schema {
	return schema.New(name, name, "#000", "test provider",
		schema.FieldDef{Name: "token", Field: schema.Field{
			Required: true,
			Validate: schema.NonEmptyString,
		}},
	)
}

func registerMock(t *testing.T, reg *notifier.Registry, name string, send notifier.SendFunc) {
	t.Helper()
	s := mockSchema(name)
	err := reg.Register(s, func(cfg config.ServiceConfig, log logger.Logger) *notifier.Notifier {
		return notifier.New(s, send, cfg, log)
	})
	require.NoError(t, err)
}

func highlightEvent() event.Event {
	return event.Event{
		Type:      event.TypeMessage,
		Network:   "freenode",
		Channel:   "#test",
		Nick:      "bob",
		Message:   "hello world",
		Highlight: true,
	}
}

func newTestEngine(t *testing.T, store *memStore, sends map[string]notifier.SendFunc) *Engine {
	t.Helper()
	reg := notifier.NewRegistry(logger.Discard)
	for name, send := range sends {
		registerMock(t, reg, name, send)
	}
	e := New("alice@freenode", store, reg)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func okSend(context.Context, config.ServiceConfig, event.Notification) error {
	return nil
}

func failSend(context.Context, config.ServiceConfig, event.Notification) error {
	return stderrors.New("connection refused")
}

func enabledService(token string) config.ServiceConfig {
	return config.ServiceConfig{"enabled": true, "token": token}
}

func TestShouldNotifyMatrix(t *testing.T) {
	tests := []struct {
		name      string
		away      bool
		onlyAway  bool
		highlight bool
		filterOn  bool
		want      bool
	}{
		{"highlight notifies", false, false, true, true, true},
		{"no highlight no notify", false, false, false, true, false},
		{"away required but present", false, true, true, true, false},
		{"away required and away", true, true, true, true, true},
		{"highlights filter off", false, false, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			cfg := config.Default()
			cfg.Filters.OnlyWhenAway = tt.onlyAway
			cfg.Filters.Highlights = tt.filterOn
			store.configs["alice@freenode"] = cfg

			e := newTestEngine(t, store, nil)
			ev := highlightEvent()
			ev.Highlight = tt.highlight
			assert.Equal(t, tt.want, e.ShouldNotify(ev, tt.away))
		})
	}
}

func TestShouldNotifyRejectsSelfAndUnknownTypes(t *testing.T) {
	e := newTestEngine(t, newMemStore(), nil)

	ev := highlightEvent()
	ev.Self = true
	assert.False(t, e.ShouldNotify(ev, false))

	ev = highlightEvent()
	ev.Type = "join"
	assert.False(t, e.ShouldNotify(ev, false))
}

func TestShouldNotifyGlobalDisable(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Enabled = false
	store.configs["alice@freenode"] = cfg

	e := newTestEngine(t, store, nil)
	assert.False(t, e.ShouldNotify(highlightEvent(), false))
}

func TestShouldNotifyChannelFilters(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Filters.Channels = &config.ChannelFilter{Blacklist: []string{"#test"}}
	store.configs["alice@freenode"] = cfg

	e := newTestEngine(t, store, nil)
	assert.False(t, e.ShouldNotify(highlightEvent(), false), "blacklisted channel")

	cfg.Filters.Channels = &config.ChannelFilter{Whitelist: []string{"#other"}}
	e.Reload()
	assert.False(t, e.ShouldNotify(highlightEvent(), false), "not on whitelist")

	cfg.Filters.Channels = &config.ChannelFilter{Whitelist: []string{"#test"}}
	e.Reload()
	assert.True(t, e.ShouldNotify(highlightEvent(), false), "on whitelist")
}

func TestDedupKeyMessagePrefix(t *testing.T) {
	e := newTestEngine(t, newMemStore(), nil)

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}

	a := highlightEvent()
	a.Message = string(long) + "tail one"
	b := highlightEvent()
	b.Message = string(long) + "completely different tail"

	// Same 50-char prefix collides by design.
	assert.Equal(t, e.DedupKey(a), e.DedupKey(b))

	c := highlightEvent()
	c.Message = "different from the start"
	assert.NotEqual(t, e.DedupKey(a), e.DedupKey(c))

	d := highlightEvent()
	d.Message = a.Message
	d.Nick = "carol"
	assert.NotEqual(t, e.DedupKey(a), e.DedupKey(d))
}

func TestDedupKeyCountsCharactersNotBytes(t *testing.T) {
	e := newTestEngine(t, newMemStore(), nil)

	// 3-byte runes: the differing character sits past byte 50 but well
	// inside the 50-character prefix.
	prefix := strings.Repeat("漢", 17)
	suffix := strings.Repeat("漢", 2)

	a := highlightEvent()
	a.Message = prefix + "甲" + suffix
	b := highlightEvent()
	b.Message = prefix + "乙" + suffix
	assert.NotEqual(t, e.DedupKey(a), e.DedupKey(b),
		"messages differing within the first 50 characters must not collide")

	// Sharing the full 50-character prefix still collides.
	long := strings.Repeat("漢", 50)
	c := highlightEvent()
	c.Message = long + "tail one"
	d := highlightEvent()
	d.Message = long + "tail two"
	assert.Equal(t, e.DedupKey(c), e.DedupKey(d))
}

func TestProcessMessageDeduplicates(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Services["ok"] = enabledService("x")
	store.configs["alice@freenode"] = cfg

	e := newTestEngine(t, store, map[string]notifier.SendFunc{"ok": okSend})

	ctx := context.Background()
	first := e.ProcessMessage(ctx, highlightEvent(), false)
	require.NotNil(t, first)

	second := e.ProcessMessage(ctx, highlightEvent(), false)
	assert.Nil(t, second, "identical event within the dedup window must be suppressed")
}

func TestProcessMessageFilteredReturnsNil(t *testing.T) {
	e := newTestEngine(t, newMemStore(), map[string]notifier.SendFunc{"ok": okSend})
	ev := highlightEvent()
	ev.Highlight = false
	assert.Nil(t, e.ProcessMessage(context.Background(), ev, false))
}

func TestProcessMessageFanOutIsolation(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Services["ok"] = enabledService("x")
	cfg.Services["bad"] = enabledService("x")
	store.configs["alice@freenode"] = cfg

	e := newTestEngine(t, store, map[string]notifier.SendFunc{
		"ok":  okSend,
		"bad": failSend,
	})

	rcpt := e.ProcessMessage(context.Background(), highlightEvent(), false)
	require.NotNil(t, rcpt)
	assert.Equal(t, []string{"ok"}, rcpt.Services())
	assert.Equal(t, 1, rcpt.Successful)
	assert.Equal(t, 1, rcpt.Failed)
	assert.Len(t, rcpt.Errors(), 1)
}

func TestProcessMessageFormatsNotification(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Services["ok"] = enabledService("x")
	store.configs["alice@freenode"] = cfg

	var got event.Notification
	capture := func(_ context.Context, _ config.ServiceConfig, n event.Notification) error {
		got = n
		return nil
	}
	e := newTestEngine(t, store, map[string]notifier.SendFunc{"ok": capture})

	rcpt := e.ProcessMessage(context.Background(), highlightEvent(), false)
	require.NotNil(t, rcpt)
	assert.Equal(t, "freenode - #test", got.Title)
	assert.Equal(t, "<bob> hello world", got.Message)
}

func TestProcessMessageSkipsMetadataNotifiers(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	// Missing required token keeps the provider in metadata mode.
	cfg.Services["ok"] = config.ServiceConfig{"enabled": true}
	store.configs["alice@freenode"] = cfg

	e := newTestEngine(t, store, map[string]notifier.SendFunc{"ok": okSend})

	rcpt := e.ProcessMessage(context.Background(), highlightEvent(), false)
	require.NotNil(t, rcpt)
	assert.Empty(t, rcpt.Services())
	assert.Empty(t, rcpt.Results)
}

func TestProcessMessageSendTimeout(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Services["slow"] = enabledService("x")
	store.configs["alice@freenode"] = cfg

	slow := func(ctx context.Context, _ config.ServiceConfig, _ event.Notification) error {
		<-ctx.Done()
		return ctx.Err()
	}
	reg := notifier.NewRegistry(logger.Discard)
	registerMock(t, reg, "slow", slow)
	e := New("alice@freenode", store, reg, WithSendTimeout(20*time.Millisecond))
	defer func() { _ = e.Close() }()

	start := time.Now()
	rcpt := e.ProcessMessage(context.Background(), highlightEvent(), false)
	require.NotNil(t, rcpt)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, rcpt.Failed)
}

func TestReloadPicksUpUnknownProvidersGracefully(t *testing.T) {
	store := newMemStore()
	cfg := config.Default()
	cfg.Services["ghost"] = enabledService("x")
	store.configs["alice@freenode"] = cfg

	// No provider named ghost is registered; the engine skips it.
	e := newTestEngine(t, store, map[string]notifier.SendFunc{"ok": okSend})
	rcpt := e.ProcessMessage(context.Background(), highlightEvent(), false)
	require.NotNil(t, rcpt)
	assert.Empty(t, rcpt.Results)
}
