package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config is the logging configuration read from the environment:
//
//	ASCONF_LOG_LEVEL=asconf=debug,udp=warn,info
//	ASCONF_LOG_FORMAT=json
type Config struct {
	DefaultLevel    slog.Level
	SubsystemLevels map[string]slog.Level
	Format          Format
}

func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	configCache *Config
	configOnce  sync.Once
)

func ConfigFromEnv() *Config {
	configOnce.Do(func() {
		configCache = parseConfig(os.Getenv("ASCONF_LOG_LEVEL"), os.Getenv("ASCONF_LOG_FORMAT"))
	})
	return configCache
}

func parseConfig(levels, format string) *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}
	for _, part := range strings.Split(levels, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if subsystem, name, ok := strings.Cut(part, "="); ok {
			if level, ok := parseLevel(strings.TrimSpace(name)); ok {
				cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
			}
		} else if level, ok := parseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
	if strings.EqualFold(format, "json") {
		cfg.Format = FormatJSON
	}
	return cfg
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
