package relay

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"camscope/internal/application"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Публикаторы подключаются с любых адресов
	},
}

// Status состояние ретранслятора
type Status struct {
	Publishers   int
	Frames       int
	LastFrameAt  time.Time
	RecordingDir string
}

// Relay принимает кадры превью по WebSocket, хранит последний кадр и
// при необходимости пишет поток в файл
type Relay struct {
	logger       application.Logger
	recordingDir string
	now          func() time.Time

	mutex       sync.RWMutex
	latest      []byte
	lastFrameAt time.Time
	frames      int
	publishers  int
}

// New создаёт ретранслятор; пустой recordingDir отключает запись
func New(logger application.Logger, recordingDir string) *Relay {
	return &Relay{
		logger:       logger,
		recordingDir: recordingDir,
		now:          time.Now,
	}
}

// Handler возвращает маршруты ретранслятора
func (r *Relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.handlePublish)
	mux.HandleFunc("/latest.jpg", r.handleLatest)
	mux.HandleFunc("/", r.handleStatus)
	return mux
}

// Latest возвращает последний принятый кадр
func (r *Relay) Latest() ([]byte, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.latest == nil {
		return nil, false
	}
	return r.latest, true
}

// Status возвращает текущее состояние
func (r *Relay) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return Status{
		Publishers:   r.publishers,
		Frames:       r.frames,
		LastFrameAt:  r.lastFrameAt,
		RecordingDir: r.recordingDir,
	}
}

// ListenAndServe обслуживает addr до отмены контекста
func (r *Relay) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("Запуск ретранслятора на %s...", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("запуск ретранслятора: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (r *Relay) handlePublish(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("Ошибка при апгрейде до WebSocket: %v", err)
		return
	}
	defer conn.Close()

	var recorder *Recorder
	if r.recordingDir != "" {
		recorder, err = NewRecorder(r.recordingDir, r.now())
		if err != nil {
			r.logger.Error("Не удалось создать запись: %v", err)
			return
		}
		r.logger.Info("Запись в файл: %s", recorder.Path())
		defer func() {
			r.logger.Info("Закрытие файла: %s (кадров: %d)", recorder.Path(), recorder.Frames())
			_ = recorder.Close()
		}()
	}

	clientAddr := conn.RemoteAddr().String()
	r.logger.Info("Публикатор подключен: %s", clientAddr)
	r.setPublishers(1)
	defer r.setPublishers(-1)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Error("Ошибка чтения: %v", err)
			}
			break
		}

		// Кадры приходят бинарными сообщениями в JPEG
		if messageType != websocket.BinaryMessage {
			continue
		}
		r.store(message)

		if recorder != nil {
			if err := recorder.Write(message); err != nil {
				r.logger.Error("Ошибка записи данных: %v", err)
				break
			}
		}
	}

	r.logger.Info("Публикатор отключен: %s", clientAddr)
}

func (r *Relay) store(frame []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.latest = frame
	r.lastFrameAt = r.now()
	r.frames++
}

func (r *Relay) setPublishers(delta int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.publishers += delta
}

func (r *Relay) handleLatest(w http.ResponseWriter, _ *http.Request) {
	frame, ok := r.Latest()
	if !ok {
		http.Error(w, "кадров пока нет", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(frame)
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>Ретранслятор превью camscope</title>
	<meta http-equiv="refresh" content="2">
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		.status { padding: 20px; background-color: #e0f7fa; border-radius: 5px; }
	</style>
</head>
<body>
	<h1>Ретранслятор превью camscope</h1>
	<div class="status">
		<p>Публикаторов: {{.Publishers}}</p>
		<p>Принято кадров: {{.Frames}}</p>
		{{if not .LastFrameAt.IsZero}}<p>Последний кадр: {{.LastFrameAt.Format "15:04:05"}}</p>{{end}}
		{{if .RecordingDir}}<p>Директория для записей: <code>{{.RecordingDir}}</code></p>{{end}}
	</div>
	{{if .Frames}}<img src="/latest.jpg" alt="последний кадр" style="max-width: 100%">{{end}}
</body>
</html>
`))

func (r *Relay) handleStatus(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, r.Status()); err != nil {
		r.logger.Error("Ошибка страницы статуса: %v", err)
	}
}
