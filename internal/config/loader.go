package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies the
// `default` tags and validates the result. Every unparsable variable is
// reported, not just the first.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	l := loader{getenv: getenv}
	l.fill(reflect.ValueOf(cfg).Elem())
	if err := errors.Join(l.errs...); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

type loader struct {
	getenv func(string) string
	errs   []error
}

// fill walks the struct tree and sets every field tagged with `env`.
func (l *loader) fill(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			l.fill(fv)
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := l.lookup(name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				l.errs = append(l.errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := parseInto(fv, raw); err != nil {
			l.errs = append(l.errs, fmt.Errorf("invalid value for %s=%q: %w", name, raw, err))
		}
	}
}

func (l *loader) lookup(names ...string) (string, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v := l.getenv(n); v != "" {
			return v, true
		}
	}
	return "", false
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseInto converts raw to the field's type. String slices are
// comma-separated with blanks dropped.
func parseInto(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem().Kind())
		}
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", fv.Kind())
	}
	return nil
}

// problems collects validation failures.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

// Validate checks that the configuration is usable.
// The returned error lists every failure.
func (c *Config) Validate() error {
	var p problems
	c.Store.validate(&p)
	c.Server.validate(&p)

	p.check(c.Editor.MaxRowsPerAdd > 0, "EDITOR_MAX_ROWS_PER_ADD must be positive")
	p.check(c.Editor.AutosaveInterval >= 0, "EDITOR_AUTOSAVE_INTERVAL must be non-negative")

	p.check(c.Jobs.MaxImportSize > 0, "JOB_MAX_IMPORT_SIZE must be positive")
	p.check(c.Jobs.MaxConcurrent > 0, "JOB_MAX_CONCURRENT must be positive")
	p.check(c.Jobs.MaxWaitTime > 0, "JOB_MAX_WAIT_TIME must be positive")

	p.check(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
		"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.addf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.addf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (s StoreConfig) validate(p *problems) {
	switch strings.ToLower(s.Backend) {
	case "", "file":
		p.check(s.Dir != "", "STORE_DIR is required for the file backend")
	case "postgres":
		p.check(s.DatabaseURL != "", "DATABASE_URL is required for the postgres backend")
	case "sqlite":
		p.check(s.SQLitePath != "", "SQLITE_PATH is required for the sqlite backend")
	default:
		p.addf("STORE_BACKEND (%q) must be one of: file, postgres, sqlite", s.Backend)
	}
	p.check(s.MaxConns > 0, "DB_MAX_CONNS must be positive")
	p.check(s.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	p.check(s.MaxConns >= s.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", s.MaxConns, s.MinConns)
	p.check(s.Timeout > 0, "STORE_TIMEOUT must be positive")
}

func (s ServerConfig) validate(p *problems) {
	p.check(s.Port > 0 && s.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", s.Port)
	p.check(s.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
}

// String renders the config for logging with the database URL masked.
func (c *Config) String() string {
	url := ""
	if c.Store.DatabaseURL != "" {
		url = "[MASKED]"
	}
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Store: {Backend: %q, Dir: %q, URL: %s, SQLitePath: %q}, "+
		"Editor: {MaxRowsPerAdd: %d, Autoload: %q, AutosaveInterval: %s}, "+
		"Jobs: {MaxImportSize: %d, MaxConcurrent: %d}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		c.Store.Backend, c.Store.Dir, url, c.Store.SQLitePath,
		c.Editor.MaxRowsPerAdd, c.Editor.Autoload, c.Editor.AutosaveInterval,
		c.Jobs.MaxImportSize, c.Jobs.MaxConcurrent,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Logging.Level, c.Logging.Format)
}
