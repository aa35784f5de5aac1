package config

// KeyEnabled is the reserved service config key holding the per-provider
// enable flag. It is not part of any provider schema.
const KeyEnabled = "enabled"

// ServiceConfig is an opaque field map whose keys are defined by the
// provider's schema, plus the reserved enabled flag. It is only
// meaningful in combination with its provider schema.
type ServiceConfig map[string]any

// Enabled reports whether the provider is enabled.
func (s ServiceConfig) Enabled() bool {
	v, ok := s[KeyEnabled].(bool)
	return ok && v
}

// SetEnabled sets the provider enable flag.
func (s ServiceConfig) SetEnabled(enabled bool) {
	s[KeyEnabled] = enabled
}

// Get returns the raw value for a field.
func (s ServiceConfig) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// GetString returns the field value as a string. Non-string values
// return the empty string.
func (s ServiceConfig) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Set stores a raw field value.
func (s ServiceConfig) Set(key string, value any) {
	s[key] = value
}

// Clone returns a shallow copy of the service config.
func (s ServiceConfig) Clone() ServiceConfig {
	out := make(ServiceConfig, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
