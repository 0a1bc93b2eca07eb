package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// Prefix is the environment variable prefix for listview settings.
const Prefix = "LISTVIEW_"

// Kind is the value type an environment variable is decoded as.
type Kind int

// Value kinds.
const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Mapping binds an environment variable to a configuration path.
type Mapping struct {
	Path string
	Kind Kind
}

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]Mapping
	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvLoader creates a loader with the default listview mappings.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom reads from a fixed environment instead of the process
// environment.
func NewEnvLoaderFrom(prefix string, env map[string]string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	l.environ = func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}
	return l
}

func defaultEnvMapping() map[string]Mapping {
	return map[string]Mapping{
		"LISTVIEW_LOG_LEVEL":       {"logging.level", KindString},
		"LISTVIEW_ADDRESS_WIDTH":   {"columns.address_width", KindInt},
		"LISTVIEW_UNKNOWN_SEGMENT": {"columns.unknown_segment", KindString},
		"LISTVIEW_ORDINALS_DIR":    {"ordinals.dir", KindString},
		"LISTVIEW_METRICS_ADDR":    {"metrics.addr", KindString},
	}
}

// AddMapping adds or replaces an environment variable mapping.
func (l *EnvLoader) AddMapping(env string, m Mapping) {
	l.mapping[env] = m
}

// Load implements Loader. Mapped variables are decoded as their declared
// kind; other prefixed variables map LISTVIEW_SECTION_SOME_KEY to
// section.some_key with an inferred type.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, m := range l.mapping {
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		v, err := decodeKind(env, val, m.Kind)
		if err != nil {
			return nil, err
		}
		setByPath(config, m.Path, v)
	}

	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		path := l.envToPath(name)
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}
	return config, nil
}

// envToPath converts LISTVIEW_COLUMNS_ADDRESS_WIDTH to columns.address_width.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(env, l.prefix)), "_", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func decodeKind(env, val string, kind Kind) (any, error) {
	switch kind {
	case KindInt:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, &ParseError{Path: "$" + env, Message: "expected an integer", Err: err}
		}
		return i, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, &ParseError{Path: "$" + env, Message: "expected a boolean", Err: err}
		}
		return b, nil
	default:
		return val, nil
	}
}

// parseValue infers a type for an unmapped variable.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "":
		return s
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
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
