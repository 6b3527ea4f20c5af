package streaming

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"camscope/internal/application"
	"camscope/internal/domain"
)

// writeTimeout ограничение на отправку одного кадра
const writeTimeout = 5 * time.Second

// WebSocketStreamer отправляет кадры превью ретранслятору через WebSocket
type WebSocketStreamer struct {
	conn         *websocket.Conn
	logger       application.Logger
	connected    bool
	mutex        sync.Mutex
	frameCounter int
	startTime    time.Time
	debugMode    bool
}

// NewWebSocketStreamer создает новый WebSocket стример
func NewWebSocketStreamer(logger application.Logger, debugMode bool) *WebSocketStreamer {
	return &WebSocketStreamer{
		logger:    logger,
		debugMode: debugMode,
	}
}

// StartStreaming подключается к ретранслятору и отправляет JPEG-кадры потока
// до отмены контекста
func (s *WebSocketStreamer) StartStreaming(ctx context.Context, stream application.Stream, config application.PreviewConfig) error {
	if s.IsConnected() {
		_ = s.StopStreaming()
	}

	u, err := url.Parse(config.StreamingURL)
	if err != nil {
		s.logger.Error("Некорректный URL стриминга: %v", err)
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.New("URL стриминга должен начинаться с ws:// или wss://")
	}

	s.logger.Info("Подключение к %s", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		s.logger.Error("Ошибка подключения к серверу: %v", err)
		return err
	}

	s.mutex.Lock()
	s.conn = conn
	s.connected = true
	s.frameCounter = 0
	s.startTime = time.Now()
	s.mutex.Unlock()
	defer s.StopStreaming()

	s.logger.Info("Подключено к серверу, стриминг камеры %s", stream.DeviceID())

	var interval time.Duration
	if config.FrameRate > 0 {
		interval = time.Second / time.Duration(config.FrameRate)
	}
	var lastSent time.Time
	number := 0

	for {
		if ctx.Err() != nil {
			s.logger.Info("Стриминг остановлен")
			return nil
		}

		img, err := stream.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || !s.IsConnected() {
				return nil
			}
			s.logger.Error("Ошибка чтения кадра: %v", err)
			return err
		}

		if interval > 0 && time.Since(lastSent) < interval {
			continue
		}

		data, err := application.EncodeJPEG(img, config.JPEGQuality)
		if err != nil {
			s.logger.Error("Ошибка кодирования кадра: %v", err)
			continue
		}
		number++

		frame := &domain.VideoFrame{Data: data, Size: len(data), Number: number}
		if err := s.SendFrame(frame); err != nil {
			if ctx.Err() != nil || !s.IsConnected() {
				return nil
			}
			s.logger.Error("Ошибка отправки кадра: %v", err)
			return err
		}
		lastSent = time.Now()
	}
}

// StopStreaming закрывает соединение с ретранслятором
func (s *WebSocketStreamer) StopStreaming() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.connected || s.conn == nil {
		return nil
	}

	err := s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil {
		s.logger.Debug("Ошибка закрытия WebSocket: %v", err)
	}

	s.conn.Close()
	s.conn = nil
	s.connected = false

	return nil
}

// IsConnected возвращает статус подключения
func (s *WebSocketStreamer) IsConnected() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.connected
}

// Sent возвращает число кадров, отправленных за последнее подключение.
// После StopStreaming значение сохраняется до следующего подключения.
func (s *WebSocketStreamer) Sent() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.frameCounter
}

// SendFrame отправляет кадр через WebSocket
func (s *WebSocketStreamer) SendFrame(frame *domain.VideoFrame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.connected || s.conn == nil {
		return nil
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
		return err
	}

	s.frameCounter++

	if s.debugMode && s.frameCounter%30 == 0 {
		elapsed := time.Since(s.startTime).Seconds()
		fps := float64(s.frameCounter) / elapsed
		s.logger.Debug("Отправлено фреймов: %d, FPS: %.2f, Размер последнего фрейма: %d байт",
			s.frameCounter, fps, frame.Size)
	}

	return nil
}
