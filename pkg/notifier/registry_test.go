package notifier

import (
	"testing"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/errors"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/schema"
)

func testFactory(s *schema.Schema) Factory {
	return func(cfg config.ServiceConfig, log logger.Logger) *Notifier {
		return New(s, noopSend, cfg, log)
	}
}

func TestRegistryRegisterAndBuild(t *testing.T) {
	reg := NewRegistry(logger.Discard)
	s := testSchema()

	if err := reg.Register(s, testFactory(s)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !reg.Has("push") {
		t.Error("Has(push) = false, want true")
	}

	n, err := reg.Build("push", config.ServiceConfig{}, logger.Discard)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if n.Name() != "push" {
		t.Errorf("Name() = %q, want push", n.Name())
	}
}

func TestRegistryDuplicateRejected(t *testing.T) {
	reg := NewRegistry(logger.Discard)
	s := testSchema()

	if err := reg.Register(s, testFactory(s)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(s, testFactory(s)); err == nil {
		t.Error("duplicate Register() should fail")
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	reg := NewRegistry(logger.Discard)

	if _, err := reg.Build("missing", config.ServiceConfig{}, logger.Discard); !errors.IsCode(err, errors.ErrUnknownProvider) {
		t.Errorf("Build(missing) error = %v, want UNKNOWN_PROVIDER", err)
	}
	if _, err := reg.Schema("missing"); !errors.IsCode(err, errors.ErrUnknownProvider) {
		t.Errorf("Schema(missing) error = %v, want UNKNOWN_PROVIDER", err)
	}
}

func TestRegistryNamesInRegistrationOrder(t *testing.T) {
	reg := NewRegistry(logger.Discard)
	a := schema.New("a", "A", "", "")
	b := schema.New("b", "B", "", "")
	_ = reg.Register(b, testFactory(b))
	_ = reg.Register(a, testFactory(a))

	names := reg.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Names() = %v, want [b a]", names)
	}
}
