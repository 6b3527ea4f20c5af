package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder дописывает JPEG-кадры в файл .mjpeg. Такой файл воспроизводится
// ffplay/VLC как поток Motion JPEG.
type Recorder struct {
	mutex      sync.Mutex
	outputFile *os.File
	filePath   string
	frames     int
}

// NewRecorder создаёт файл записи в outputDir с именем по текущему времени
func NewRecorder(outputDir string, now time.Time) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("camscope_%s.mjpeg", now.Format("2006-01-02_15-04-05.000")))
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать файл: %w", err)
	}

	return &Recorder{
		outputFile: file,
		filePath:   filePath,
	}, nil
}

// Path возвращает путь к файлу записи
func (r *Recorder) Path() string {
	return r.filePath
}

// Frames возвращает число записанных кадров
func (r *Recorder) Frames() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.frames
}

// Write дописывает кадр
func (r *Recorder) Write(frame []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.outputFile == nil {
		return os.ErrClosed
	}
	if _, err := r.outputFile.Write(frame); err != nil {
		return err
	}
	r.frames++
	return nil
}

// Close закрывает файл
func (r *Recorder) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.outputFile != nil {
		err := r.outputFile.Close()
		r.outputFile = nil
		return err
	}
	return nil
}
