package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables.
//
// SYNCACCESS_SCREEN_WIDTH=100 sets screen.width and
// SYNCACCESS_DISPATCHER_QUEUE_SIZE=64 sets dispatcher.queueSize: the first
// word names the section, the rest form the camelCase key.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "SYNCACCESS_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom creates a loader over a fixed list of KEY=VALUE pairs.
func NewEnvLoaderFrom(prefix string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return environ }
	return l
}

// defaultEnvMapping returns the variables whose names do not follow the
// section_key convention.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":   "logging.level",
		prefix + "LOG_FILE":    "logging.file",
		prefix + "SIMULATE":    "screen.simulate",
		prefix + "LOCK_THREAD": "dispatcher.lockOSThread",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// sections lists the tables an unmapped variable may address.
var sections = map[string]bool{
	"dispatcher": true,
	"logging":    true,
	"screen":     true,
	"styles":     true,
}

// envToPath converts SYNCACCESS_DISPATCHER_QUEUE_SIZE to dispatcher.queueSize.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}

	section := strings.ToLower(parts[0])
	if !sections[section] {
		return ""
	}
	key := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			key += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}

	// Style names are kept lowercase as written.
	if section == "styles" {
		key = strings.ToLower(strings.Join(parts[1:], "_"))
	}
	return section + "." + key
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only with a decimal point, to avoid misreading ints.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}
