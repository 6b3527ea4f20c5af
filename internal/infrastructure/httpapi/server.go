package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"camscope/internal/application"
	"camscope/internal/domain"
)

// shutdownTimeout время на завершение открытых запросов
const shutdownTimeout = 5 * time.Second

// Scanner каталог камер с пересканированием
type Scanner interface {
	Scan(ctx context.Context) (domain.Catalog, error)
	Current() domain.Catalog
}

// Session управление превью
type Session interface {
	StartDevice(ctx context.Context, deviceID string) error
	StartFacing(ctx context.Context, facing domain.FacingMode) error
	SwitchDevice(ctx context.Context, deviceID string) error
	SwitchFacing(ctx context.Context, facing domain.FacingMode) error
	ToggleFacing(ctx context.Context) error
	Stop() error
	Snapshot() application.SessionSnapshot
	CaptureStill(ctx context.Context) (*domain.Still, error)
}

// Server HTTP API над каталогом и сессией превью
type Server struct {
	scanner    Scanner
	session    Session
	logger     application.Logger
	engine     *gin.Engine
	httpServer *http.Server
	frameRate  int
}

// New создаёт сервер; frameRate ограничивает частоту кадров MJPEG (0 без ограничения)
func New(addr string, scanner Scanner, session Session, logger application.Logger, frameRate int) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		scanner:   scanner,
		session:   session,
		logger:    logger,
		engine:    engine,
		frameRate: frameRate,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler возвращает обработчик маршрутов
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/cameras", s.handleCameras)
	api.POST("/cameras/rescan", s.handleRescan)

	session := api.Group("/session")
	session.GET("", s.handleSession)
	session.POST("/start", s.handleStart)
	session.POST("/switch", s.handleSwitch)
	session.POST("/toggle", s.handleToggle)
	session.POST("/stop", s.handleStop)
	session.GET("/still", s.handleStill)
	session.GET("/preview", s.handlePreview)
}

// Start запускает сервер и блокируется до отмены контекста
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP API запущен: %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("запуск сервера: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown() error {
	s.logger.Info("Остановка HTTP API...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return nil
}
