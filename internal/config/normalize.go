package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Переменные окружения, перекрывающие файл
const (
	EnvLogLevel   = "CAMSCOPE_LOG_LEVEL"
	EnvServerPort = "CAMSCOPE_SERVER_PORT"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizePreview()
	return c.normalizePaths()
}

func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Log.Level = value
	}
	if value, ok := os.LookupEnv(EnvServerPort); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvServerPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "", "console", "text":
		c.Log.Format = defaultLogFormat
	case "json":
	default:
		c.Log.Format = defaultLogFormat
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

func (c *Config) normalizePreview() {
	c.Preview.Facing = strings.ToLower(strings.TrimSpace(c.Preview.Facing))
	if c.Preview.Facing == "" {
		c.Preview.Facing = defaultFacing
	}
	if c.Preview.JPEGQuality == 0 {
		c.Preview.JPEGQuality = defaultJPEGQuality
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Relay.URL = strings.TrimSpace(c.Relay.URL)
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Log.File, err = expandPath(strings.TrimSpace(c.Log.File)); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.Lock.Dir, err = expandPath(strings.TrimSpace(c.Lock.Dir)); err != nil {
		return fmt.Errorf("lock.dir: %w", err)
	}
	if c.Relay.RecordingDir, err = expandPath(strings.TrimSpace(c.Relay.RecordingDir)); err != nil {
		return fmt.Errorf("relay.recording_dir: %w", err)
	}
	return nil
}
