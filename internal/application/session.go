package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"camscope/internal/domain"
)

// DefaultPreviewResolution желаемое разрешение превью
var DefaultPreviewResolution = domain.Resolution{Width: 1920, Height: 1080}

// SessionState состояние менеджера сессии
type SessionState string

const (
	StateIdle   SessionState = "idle"   // Нет активного потока
	StateActive SessionState = "active" // Открыт ровно один поток
)

// session активный захват
type session struct {
	id        string
	request   domain.StreamRequest
	stream    Stream
	startedAt time.Time

	cancel     context.CancelFunc
	streamDone chan struct{}
}

// SessionSnapshot состояние сессии для отображения
type SessionSnapshot struct {
	ID         string                   `json:"id,omitempty"`
	State      SessionState             `json:"state"`
	DeviceID   string                   `json:"deviceId,omitempty"`
	FacingMode domain.FacingMode        `json:"facingMode,omitempty"`
	Camera     *domain.CameraDescriptor `json:"camera,omitempty"`
	Resolution domain.Resolution        `json:"resolution"`
	StartedAt  time.Time                `json:"startedAt,omitempty"`
}

// SessionManager владеет единственным живым потоком превью. Любой переход в
// Active сначала закрывает предыдущий поток, и только потом открывает новый.
type SessionManager struct {
	platform      Platform
	catalog       CatalogProvider
	streamManager StreamManager
	lock          DeviceLock
	logger        Logger
	preview       PreviewConfig

	mutex   sync.Mutex
	current *session
	facing  domain.FacingMode
}

// SessionOption настраивает SessionManager
type SessionOption func(*SessionManager)

// WithStreamManager включает стриминг превью для каждой сессии
func WithStreamManager(streamManager StreamManager) SessionOption {
	return func(m *SessionManager) {
		m.streamManager = streamManager
	}
}

// WithDeviceLock захватывает межпроцессную блокировку на время сессии
func WithDeviceLock(lock DeviceLock) SessionOption {
	return func(m *SessionManager) {
		m.lock = lock
	}
}

// WithPreviewConfig задаёт параметры превью
func WithPreviewConfig(config PreviewConfig) SessionOption {
	return func(m *SessionManager) {
		if config.Ideal.Width <= 0 || config.Ideal.Height <= 0 {
			config.Ideal = DefaultPreviewResolution
		}
		m.preview = config
	}
}

// NewSessionManager создаёт менеджер сессии в состоянии Idle
func NewSessionManager(platform Platform, catalog CatalogProvider, logger Logger, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		platform: platform,
		catalog:  catalog,
		logger:   logger,
		preview:  PreviewConfig{Ideal: DefaultPreviewResolution, JPEGQuality: DefaultJPEGQuality},
		facing:   domain.FacingEnvironment,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartDevice открывает превью указанного устройства
func (m *SessionManager) StartDevice(ctx context.Context, deviceID string) error {
	return m.start(ctx, "запуск превью", domain.StreamRequest{DeviceID: deviceID}, false)
}

// StartFacing открывает превью камеры с указанной ориентацией
func (m *SessionManager) StartFacing(ctx context.Context, facing domain.FacingMode) error {
	return m.start(ctx, "запуск превью", domain.StreamRequest{FacingMode: facing}, false)
}

// SwitchDevice переключает превью на другое устройство
func (m *SessionManager) SwitchDevice(ctx context.Context, deviceID string) error {
	return m.start(ctx, "переключение камеры", domain.StreamRequest{DeviceID: deviceID}, false)
}

// SwitchFacing переключает превью на камеру с указанной ориентацией
func (m *SessionManager) SwitchFacing(ctx context.Context, facing domain.FacingMode) error {
	return m.start(ctx, "переключение камеры", domain.StreamRequest{FacingMode: facing}, false)
}

// ToggleFacing переключает между тыловой и фронтальной камерой
func (m *SessionManager) ToggleFacing(ctx context.Context) error {
	return m.start(ctx, "переключение камеры", domain.StreamRequest{}, true)
}

// Stop останавливает превью. Повторный вызов ничего не делает.
func (m *SessionManager) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.teardown()
}

// State возвращает текущее состояние
func (m *SessionManager) State() SessionState {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return StateIdle
	}
	return StateActive
}

// Facing возвращает запомненную ориентацию для переключения
func (m *SessionManager) Facing() domain.FacingMode {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.facing
}

// Snapshot возвращает привязанную камеру и фактическое разрешение
func (m *SessionManager) Snapshot() SessionSnapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return SessionSnapshot{State: StateIdle}
	}

	profile := m.current.stream.Profile()
	snapshot := SessionSnapshot{
		ID:         m.current.id,
		State:      StateActive,
		DeviceID:   m.current.stream.DeviceID(),
		FacingMode: m.current.request.FacingMode,
		Resolution: profile.Settings.Resolution(),
		StartedAt:  m.current.startedAt,
	}
	if m.catalog != nil {
		if cam, ok := m.catalog.Current().Find(snapshot.DeviceID); ok {
			snapshot.Camera = &cam
		}
	}
	return snapshot
}

// CaptureStill копирует текущий кадр превью в JPEG. Кадр читается без
// mutex: Stop закрывает поток и тем самым прерывает зависшее чтение.
func (m *SessionManager) CaptureStill(ctx context.Context) (*domain.Still, error) {
	m.mutex.Lock()
	if m.current == nil {
		m.mutex.Unlock()
		return nil, domain.NewError(domain.KindIdle, "снимок", "", nil)
	}
	stream := m.current.stream
	quality := m.preview.JPEGQuality
	m.mutex.Unlock()

	img, err := stream.ReadFrame(ctx)
	if err != nil {
		if !m.isCurrent(stream) {
			return nil, domain.NewError(domain.KindIdle, "снимок", stream.DeviceID(), err)
		}
		return nil, fmt.Errorf("чтение кадра: %w", err)
	}

	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}

	return &domain.Still{
		DeviceID:   stream.DeviceID(),
		Image:      img,
		JPEG:       data,
		CapturedAt: time.Now(),
	}, nil
}

// isCurrent сообщает, что поток всё ещё принадлежит активной сессии
func (m *SessionManager) isCurrent(stream Stream) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current != nil && m.current.stream == stream
}

// start открывает новый поток; toggle берёт ориентацию, противоположную
// запомненной, под тем же mutex
func (m *SessionManager) start(ctx context.Context, op string, req domain.StreamRequest, toggle bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if toggle {
		req.FacingMode = m.facing.Opposite()
	}
	if req.FacingMode != domain.FacingNone {
		m.facing = req.FacingMode
	}

	// Активный поток закрывается до открытия нового
	if err := m.teardown(); err != nil {
		m.logger.Error("Ошибка остановки предыдущего потока: %v", err)
	}

	if req.DeviceID == "" && req.FacingMode == domain.FacingNone {
		return domain.NewError(domain.KindNotFound, op, "", errors.New("не указано устройство"))
	}
	req.Ideal = m.preview.Ideal

	// Ориентация из каталога точнее, чем ключевые слова метки
	if req.DeviceID == "" && m.catalog != nil {
		if cam, ok := m.catalog.Current().FirstFacing(req.FacingMode); ok {
			req.DeviceID = cam.DeviceID
		}
	}

	if m.lock != nil {
		locked, err := m.lock.TryLock()
		if err != nil {
			return domain.NewError(domain.KindStreamAcquisitionFailed, op, req.DeviceID, err)
		}
		if !locked {
			return domain.NewError(domain.KindStreamAcquisitionFailed, op, req.DeviceID,
				fmt.Errorf("камера используется другим процессом: %w", domain.ErrDeviceUnavailable))
		}
	}

	m.logger.Info("Открытие камеры (%s) с разрешением %s", req, req.Ideal)

	stream, err := m.platform.Acquire(ctx, req)
	if err != nil {
		m.logger.Error("Ошибка открытия камеры: %v", err)
		m.releaseLock()
		return domain.NewError(domain.KindStreamAcquisitionFailed, op, req.DeviceID, err)
	}

	current := &session{
		id:        uuid.NewString(),
		request:   req,
		stream:    stream,
		startedAt: time.Now(),
	}
	m.current = current
	m.logger.Info("Используется камера: %s (трек %s)", stream.DeviceID(), stream.ID())

	if m.streamManager != nil {
		streamCtx, cancel := context.WithCancel(context.Background())
		current.cancel = cancel
		current.streamDone = make(chan struct{})

		go func() {
			defer close(current.streamDone)
			if err := m.streamManager.StartStreaming(streamCtx, stream, m.preview); err != nil {
				m.logger.Error("Ошибка стриминга: %v", err)
			}
		}()
	}

	return nil
}

// teardown закрывает активный поток. Вызывается под mutex.
func (m *SessionManager) teardown() error {
	current := m.current
	if current == nil {
		return nil
	}
	m.current = nil

	if current.cancel != nil {
		current.cancel()
	}
	if m.streamManager != nil {
		if err := m.streamManager.StopStreaming(); err != nil {
			m.logger.Error("Ошибка остановки стриминга: %v", err)
		}
	}

	err := current.stream.Close()
	if err != nil {
		m.logger.Error("Ошибка закрытия трека: %v", err)
	}

	if current.streamDone != nil {
		<-current.streamDone
	}

	m.releaseLock()
	m.logger.Debug("Сессия %s завершена", current.id)

	return err
}

func (m *SessionManager) releaseLock() {
	if m.lock == nil {
		return
	}
	if err := m.lock.Unlock(); err != nil {
		m.logger.Error("Ошибка снятия блокировки камеры: %v", err)
	}
}
