package application

import (
	"context"
	"image"

	"camscope/internal/domain"
)

// Stream живой поток одного устройства захвата
type Stream interface {
	// ID возвращает идентификатор трека
	ID() string

	// DeviceID возвращает ID устройства, к которому привязан поток
	DeviceID() string

	// Profile возвращает настройки и возможности трека
	Profile() domain.TrackProfile

	// ReadFrame читает следующий кадр
	ReadFrame(ctx context.Context) (image.Image, error)

	// Close останавливает трек и освобождает устройство
	Close() error
}

// Platform медиа-API хоста
type Platform interface {
	// Supported возвращает domain.ErrUnsupportedPlatform, если камеры недоступны в принципе
	Supported() error

	// EnumerateDevices возвращает видеовходы в порядке перечисления
	EnumerateDevices(ctx context.Context) ([]domain.RawDeviceInfo, error)

	// Acquire открывает поток по ID устройства или по ориентации
	Acquire(ctx context.Context, req domain.StreamRequest) (Stream, error)
}

// StreamManager интерфейс для стриминга превью
type StreamManager interface {
	// StartStreaming передаёт кадры потока до отмены контекста
	StartStreaming(ctx context.Context, stream Stream, config PreviewConfig) error

	// StopStreaming останавливает стриминг
	StopStreaming() error
}

// CatalogProvider отдаёт текущий каталог камер
type CatalogProvider interface {
	Current() domain.Catalog
}

// HistoryRecorder сохраняет результаты сканирования
type HistoryRecorder interface {
	Record(ctx context.Context, catalog domain.Catalog) error
}

// DeviceLock межпроцессная блокировка камеры
type DeviceLock interface {
	TryLock() (bool, error)
	Unlock() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// PreviewConfig параметры превью
type PreviewConfig struct {
	Ideal        domain.Resolution // Желаемое разрешение превью
	FrameRate    int               // Ограничение частоты отправки кадров
	JPEGQuality  int               // Качество JPEG, 1-100
	StreamingURL string            // Адрес ретранслятора, например ws://localhost:8080/ws
}
