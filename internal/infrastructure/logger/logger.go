package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options параметры построения логгера
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // console или json
	File   string    // Дополнительный файл лога, может быть пустым
	Output io.Writer // По умолчанию os.Stderr
}

// SlogLogger логгер приложения поверх log/slog
type SlogLogger struct {
	logger *slog.Logger
	file   *os.File
}

// New создаёт логгер с указанными параметрами
func New(opts Options) (*SlogLogger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var file *os.File
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога лога: %w", err)
		}
		var err error
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("открытие файла лога %s: %w", path, err)
		}
		out = io.MultiWriter(out, file)
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		if file != nil {
			_ = file.Close()
		}
		return nil, fmt.Errorf("формат лога: неподдерживаемое значение %q", opts.Format)
	}

	return &SlogLogger{logger: slog.New(handler), file: file}, nil
}

// Close закрывает файл лога. Логгеры компонентов файлом не владеют.
func (l *SlogLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel разбирает уровень логирования; неизвестные значения дают info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component возвращает логгер с атрибутом component
func (l *SlogLogger) Component(name string) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(slog.String("component", name))}
}

// Slog возвращает нижележащий *slog.Logger
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

// Info логирует информационное сообщение
func (l *SlogLogger) Info(msg string, args ...interface{}) {
	l.logger.Info(format(msg, args))
}

// Error логирует сообщение об ошибке
func (l *SlogLogger) Error(msg string, args ...interface{}) {
	l.logger.Error(format(msg, args))
}

// Debug логирует отладочное сообщение
func (l *SlogLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(format(msg, args))
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
