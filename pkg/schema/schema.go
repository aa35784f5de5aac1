package schema

import "strings"

// Schema is an immutable description of a provider's configuration:
// transport metadata plus the declared fields in declaration order.
// Schemas are constructed once per provider and shared across notifiers.
type Schema struct {
	name        string
	displayName string
	color       string
	help        string
	order       []string
	fields      map[string]Field
	lower       map[string]string
}

// New creates a normalized schema from the given field definitions.
func New(name, displayName, color, help string, defs ...FieldDef) *Schema {
	s := &Schema{
		name:        name,
		displayName: displayName,
		color:       color,
		help:        help,
		order:       make([]string, 0, len(defs)),
		fields:      make(map[string]Field, len(defs)),
		lower:       make(map[string]string, len(defs)),
	}
	for _, def := range defs {
		s.order = append(s.order, def.Name)
		s.fields[def.Name] = def.Field.normalize(def.Name)
		s.lower[strings.ToLower(def.Name)] = def.Name
	}
	return s
}

// Name returns the provider name the schema belongs to.
func (s *Schema) Name() string { return s.name }

// DisplayName returns the human-readable provider name.
func (s *Schema) DisplayName() string { return s.displayName }

// Color returns the display color associated with the provider.
func (s *Schema) Color() string { return s.color }

// Help returns the provider help text.
func (s *Schema) Help() string { return s.help }

// FieldNames returns the declared field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Field returns the descriptor for the given canonical field name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Resolve maps a field name in arbitrary casing to its canonical
// declared name. The second return is false when no declared field
// matches.
func (s *Schema) Resolve(name string) (string, bool) {
	canonical, ok := s.lower[strings.ToLower(name)]
	return canonical, ok
}
