package logging

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvLogLevel     = "DECKTRICKS_LOG_LEVEL"
	EnvLogTimestamp = "DECKTRICKS_LOG_TIMESTAMP"
	EnvLogNoColor   = "DECKTRICKS_LOG_NOCOLOR"
)

// Config controls the console logger.
type Config struct {
	Level     Severity
	Disabled  bool
	NoColor   bool
	Timestamp bool
}

// DefaultConfig is used when neither flags nor environment say otherwise.
func DefaultConfig() Config {
	return Config{Level: Info}
}

// ConfigFromEnv returns DefaultConfig with environment overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv applies DECKTRICKS_LOG_* overrides to cfg. Unparseable values are ignored.
func ApplyEnv(cfg *Config) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		_ = cfg.SetLevel(raw)
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
}

// SetLevel parses raw and applies it. It reports false when raw is not a known level.
func (c *Config) SetLevel(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		c.Level, c.Disabled = Debug, false
	case "info":
		c.Level, c.Disabled = Info, false
	case "warn", "warning":
		c.Level, c.Disabled = Warn, false
	case "error":
		c.Level, c.Disabled = Error, false
	case "disabled", "off", "none":
		c.Disabled = true
	default:
		return false
	}
	return true
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
