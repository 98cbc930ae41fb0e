package module

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents module-specific configuration (opaque to the runtime).
type Config map[string]any

// String returns the value for key rendered as a trimmed string.
func (c Config) String(key string) string {
	value, ok := c[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// StringOr returns the string value or fallback when unset.
func (c Config) StringOr(key, fallback string) string {
	if value := c.String(key); value != "" {
		return value
	}
	return fallback
}

// Int returns the integer value for key or fallback when unset or malformed.
func (c Config) Int(key string, fallback int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// Bool returns the boolean value for key or fallback when unset or malformed.
func (c Config) Bool(key string, fallback bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// Duration parses Go duration strings; bare numbers are seconds.
func (c Config) Duration(key string, fallback time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// Strings returns a list value. A single string is split on commas.
func (c Config) Strings(key string) []string {
	var raw []string
	switch v := c[key].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	}
	var out []string
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Decode copies the settings into a typed struct using its yaml tags.
func (c Config) Decode(target any) error {
	if len(c) == 0 {
		return nil
	}
	payload, err := yaml.Marshal(map[string]any(c))
	if err != nil {
		return fmt.Errorf("module: encode config: %w", err)
	}
	if err := yaml.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("module: decode config: %w", err)
	}
	return nil
}

// Merge returns a new config with overrides applied on top of c.
func (c Config) Merge(overrides Config) Config {
	if len(c) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(Config, len(c)+len(overrides))
	for key, value := range c {
		out[key] = value
	}
	for key, value := range overrides {
		out[key] = value
	}
	return out
}
