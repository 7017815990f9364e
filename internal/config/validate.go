package config

import (
	"errors"
	"fmt"

	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pattern"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

// Validate ensures the configuration is usable. The TMDB key is checked
// separately by RequireTMDB because revert and history work without it.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateRename(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireTMDB fails when no API key is configured.
func (c *Config) RequireTMDB() error {
	if c.TMDB.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY, pass --api-key, or edit %s (create with 'plex-file-namer config init')", defaultPath)
}

func (c *Config) validateTMDB() error {
	if c.TMDB.DetailLimit < 0 {
		return errors.New("tmdb.detail_limit must be zero or positive")
	}
	return nil
}

func (c *Config) validateNaming() error {
	if _, ok := media.ParseType(c.Naming.DefaultType); !ok {
		return fmt.Errorf("naming.default_type %q is invalid (want auto, movie or tv)", c.Naming.DefaultType)
	}
	if c.Naming.Pattern != "" {
		if _, err := pattern.Compile(c.Naming.Pattern); err != nil {
			return fmt.Errorf("naming.pattern: %w", err)
		}
	}
	return nil
}

func (c *Config) validateRename() error {
	if _, err := renamer.ParseMode(c.Rename.Mode); err != nil {
		return fmt.Errorf("rename.mode: %w", err)
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.TimeoutSeconds < 0 {
		return errors.New("probe.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTLHours < 0 {
		return errors.New("cache.ttl_hours must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is invalid (want debug, info, warn or error)", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation limits must be zero or positive")
	}
	return nil
}
