package config

import (
	"errors"
	"fmt"
	"net/url"

	"camscope/internal/domain"
)

// Validate проверяет, что конфигурацией можно пользоваться
func (c *Config) Validate() error {
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateResolutions(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path: обязателен при включённой истории")
	}
	if c.Hotplug.DebounceMS < 0 {
		return errors.New("hotplug.debounce_ms: не может быть отрицательным")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level: неизвестный уровень %q", c.Log.Level)
	}
}

func (c *Config) validateResolutions() error {
	if c.Probe.Width <= 0 || c.Probe.Height <= 0 {
		return fmt.Errorf("probe: некорректное разрешение %dx%d", c.Probe.Width, c.Probe.Height)
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		return fmt.Errorf("preview: некорректное разрешение %dx%d", c.Preview.Width, c.Preview.Height)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.FrameRate < 0 {
		return errors.New("preview.frame_rate: не может быть отрицательным")
	}
	if c.Preview.JPEGQuality < 1 || c.Preview.JPEGQuality > 100 {
		return fmt.Errorf("preview.jpeg_quality: %d вне диапазона 1-100", c.Preview.JPEGQuality)
	}
	if _, err := domain.ParseFacingMode(c.Preview.Facing); err != nil {
		return fmt.Errorf("preview.facing: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d вне диапазона", c.Server.Port)
	}
	if c.Relay.URL != "" {
		u, err := url.Parse(c.Relay.URL)
		if err != nil {
			return fmt.Errorf("relay.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("relay.url: ожидается ws:// или wss://, получено %q", c.Relay.URL)
		}
	}
	return nil
}

// PreviewResolution желаемое разрешение превью
func (c *Config) PreviewResolution() domain.Resolution {
	return domain.Resolution{Width: c.Preview.Width, Height: c.Preview.Height}
}

// ProbeResolution желаемое разрешение пробного открытия
func (c *Config) ProbeResolution() domain.Resolution {
	return domain.Resolution{Width: c.Probe.Width, Height: c.Probe.Height}
}
