package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"camscope/internal/application"
	"camscope/internal/config"
	"camscope/internal/infrastructure/history"
	"camscope/internal/infrastructure/lock"
	"camscope/internal/infrastructure/logger"
)

// PlatformFactory создаёт медиа-платформу хоста
type PlatformFactory func(log application.Logger) application.Platform

// commandContext общие зависимости команд. Всё создаётся лениво и один раз.
type commandContext struct {
	configFlag *string
	debugFlag  *bool
	newPlat    PlatformFactory
	logOutput  io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *logger.SlogLogger
	loggerErr  error

	platform application.Platform
	closers  []io.Closer
}

func newCommandContext(configFlag *string, debugFlag *bool, newPlat PlatformFactory) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		debugFlag:  debugFlag,
		newPlat:    newPlat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.debugFlag != nil && *c.debugFlag {
			cfg.Log.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*logger.SlogLogger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logger.New(logger.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
			Output: c.logOutput,
		})
		if c.loggerErr == nil {
			c.closers = append(c.closers, c.logger)
		}
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) ensurePlatform() (application.Platform, error) {
	if c.platform != nil {
		return c.platform, nil
	}
	log, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	c.platform = c.newPlat(log.Component("camera"))
	return c.platform, nil
}

// catalogService собирает сервис каталога с историей, если она включена
func (c *commandContext) catalogService() (*application.CatalogService, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	platform, err := c.ensurePlatform()
	if err != nil {
		return nil, err
	}

	opts := []application.CatalogOption{application.WithProbeResolution(cfg.ProbeResolution())}
	if cfg.History.Enabled {
		store, err := c.openHistory()
		if err != nil {
			log.Error("История сканирований недоступна: %v", err)
		} else {
			opts = append(opts, application.WithHistory(store))
		}
	}

	return application.NewCatalogService(platform, log.Component("catalog"), opts...), nil
}

// sessionManager собирает менеджер сессии превью
func (c *commandContext) sessionManager(catalog application.CatalogProvider, streamer application.StreamManager) (*application.SessionManager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	platform, err := c.ensurePlatform()
	if err != nil {
		return nil, err
	}

	opts := []application.SessionOption{
		application.WithPreviewConfig(application.PreviewConfig{
			Ideal:        cfg.PreviewResolution(),
			FrameRate:    cfg.Preview.FrameRate,
			JPEGQuality:  cfg.Preview.JPEGQuality,
			StreamingURL: cfg.Relay.URL,
		}),
	}
	if streamer != nil {
		opts = append(opts, application.WithStreamManager(streamer))
	}
	if cfg.Lock.Enabled {
		deviceLock, err := lock.New(cfg.Lock.Dir)
		if err != nil {
			return nil, err
		}
		log.Debug("Блокировка камеры: %s", deviceLock.Path())
		opts = append(opts, application.WithDeviceLock(deviceLock))
	}

	return application.NewSessionManager(platform, catalog, log.Component("session"), opts...), nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("открытие истории: %w", err)
	}
	c.closers = append(c.closers, store)
	return store, nil
}

// close освобождает ресурсы, открытые командой
func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
