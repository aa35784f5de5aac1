// Package schema provides declarative provider configuration schemas for
// chatpush. A provider is described by a set of field descriptors rather
// than hand-written validation code; the notifier framework consumes the
// descriptors generically.
package schema

import "fmt"

// Validator is a predicate applied to a field value.
type Validator func(value any) bool

// Field describes a single configuration field's contract.
type Field struct {
	// Default is applied to optional fields absent from a service config.
	Default any
	// Example is shown in help output; falls back to Default.
	Example any
	// Required marks the field as mandatory for activation.
	Required bool
	// Validate accepts or rejects a value. Nil means always valid.
	Validate Validator
	// ValidationError is the human-readable message reported when
	// Validate rejects a value.
	ValidationError string
}

// FieldDef pairs a field name with its descriptor, preserving the
// declaration order of a schema.
type FieldDef struct {
	Name string
	Field
}

// normalize fills the descriptor's optional attributes so every field has
// all five attributes populated. Normalizing an already normalized field
// is a no-op.
func (f Field) normalize(name string) Field {
	if f.Example == nil && f.Default != nil {
		f.Example = f.Default
	}
	if f.ValidationError == "" {
		f.ValidationError = fmt.Sprintf("Invalid value for %s", name)
	}
	if f.Validate == nil {
		f.Validate = func(any) bool { return true }
	}
	return f
}
