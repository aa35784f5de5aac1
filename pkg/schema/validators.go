package schema

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Pre-defined validators shared by the built-in provider schemas.

// NonEmptyString accepts any string with non-whitespace content.
func NonEmptyString(value any) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) != ""
}

// HTTPURL accepts absolute http or https URLs.
func HTTPURL(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// OneOf accepts any of the listed strings, case-insensitively.
func OneOf(options ...string) Validator {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, opt := range options {
			if strings.EqualFold(s, opt) {
				return true
			}
		}
		return false
	}
}

// IntInRange accepts integers (or numeric strings) within [min, max].
func IntInRange(min, max int) Validator {
	return func(value any) bool {
		var n int
		switch v := value.(type) {
		case int:
			n = v
		case float64:
			if v != float64(int(v)) {
				return false
			}
			n = int(v)
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return false
			}
			n = parsed
		default:
			return false
		}
		return n >= min && n <= max
	}
}

// JSONObject accepts a string containing a JSON object, or an empty string.
func JSONObject(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	if strings.TrimSpace(s) == "" {
		return true
	}
	var m map[string]any
	return json.Unmarshal([]byte(s), &m) == nil
}
