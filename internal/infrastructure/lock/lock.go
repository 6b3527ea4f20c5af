package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName имя файла блокировки камеры
const FileName = "camscope.lock"

// CameraLock межпроцессная блокировка камеры на файле
type CameraLock struct {
	path string
	lock *flock.Flock
}

// New создаёт блокировку в каталоге dir; каталог создаётся при необходимости
func New(dir string) (*CameraLock, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога блокировки: %w", err)
	}
	path := filepath.Join(dir, FileName)
	return &CameraLock{path: path, lock: flock.New(path)}, nil
}

// Path возвращает путь к файлу блокировки
func (l *CameraLock) Path() string {
	return l.path
}

// TryLock пытается захватить блокировку без ожидания
func (l *CameraLock) TryLock() (bool, error) {
	ok, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("захват блокировки %s: %w", l.path, err)
	}
	return ok, nil
}

// Unlock снимает блокировку; повторный вызов ничего не делает
func (l *CameraLock) Unlock() error {
	if !l.lock.Locked() {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("снятие блокировки %s: %w", l.path, err)
	}
	return nil
}

// Locked сообщает, удерживает ли процесс блокировку
func (l *CameraLock) Locked() bool {
	return l.lock.Locked()
}
