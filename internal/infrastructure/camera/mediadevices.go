package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/pion/mediadevices"
	_ "github.com/pion/mediadevices/pkg/driver/camera" // Регистрируем драйвер камеры
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"

	"camscope/internal/application"
	"camscope/internal/domain"
)

// MediaDevicesManager реализация Platform с использованием библиотеки mediadevices
type MediaDevicesManager struct {
	logger application.Logger
}

// NewMediaDevicesManager создает новый менеджер медиаустройств
func NewMediaDevicesManager(logger application.Logger) *MediaDevicesManager {
	return &MediaDevicesManager{
		logger: logger,
	}
}

// Supported проверяет, что на платформе есть доступ к камерам
func (m *MediaDevicesManager) Supported() error {
	return preflight()
}

// EnumerateDevices возвращает список видеовходов
func (m *MediaDevicesManager) EnumerateDevices(_ context.Context) ([]domain.RawDeviceInfo, error) {
	devices := mediadevices.EnumerateDevices()
	result := make([]domain.RawDeviceInfo, 0, len(devices))

	for _, device := range devices {
		if device.Kind != mediadevices.VideoInput {
			continue
		}
		result = append(result, domain.RawDeviceInfo{
			ID:      device.DeviceID,
			GroupID: GroupID(device.Label),
			Label:   device.Label,
			Index:   len(result) + 1,
		})
	}

	m.logger.Debug("Найдено видеоустройств: %d", len(result))
	return result, nil
}

// Acquire открывает камеру по ID устройства или по ориентации
func (m *MediaDevicesManager) Acquire(ctx context.Context, req domain.StreamRequest) (application.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deviceID, label, err := m.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	constraints := mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			// Разрешение желаемое, но не строгое
			if req.Ideal.Width > 0 && req.Ideal.Height > 0 {
				c.Width = prop.Int(int32(req.Ideal.Width))
				c.Height = prop.Int(int32(req.Ideal.Height))
			}
			if deviceID != "" {
				c.DeviceID = prop.StringExact(deviceID)
			}
		},
	}

	mediaStream, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		m.logger.Error("Не удалось получить доступ к медиа-устройству %s: %v", req, err)
		return nil, classifyError(deviceID, err)
	}

	videoTracks := mediaStream.GetVideoTracks()
	if len(videoTracks) == 0 {
		closeTracks(mediaStream.GetTracks())
		return nil, domain.NewError(domain.KindDeviceUnavailable, "получение видеотрека", deviceID,
			errors.New("видеотрек не обнаружен"))
	}

	track, ok := videoTracks[0].(*mediadevices.VideoTrack)
	if !ok {
		closeTracks(mediaStream.GetTracks())
		return nil, domain.NewError(domain.KindDeviceUnavailable, "получение видеотрека", deviceID,
			fmt.Errorf("неожиданный тип трека %T", videoTracks[0]))
	}

	stream := &MediaDevicesStream{
		track:    track,
		reader:   track.NewReader(true),
		deviceID: deviceID,
	}

	// Как getSettings(): фактическое разрешение известно только после первого кадра
	first, err := stream.ReadFrame(ctx)
	if err != nil {
		_ = stream.Close()
		return nil, domain.NewError(domain.KindDeviceUnavailable, "чтение первого кадра", deviceID, err)
	}
	stream.profile = buildProfile(deviceID, label, first.Bounds(), driverProperties(deviceID))

	return stream, nil
}

// resolve выбирает устройство: по ID, по ключевым словам ориентации в метке,
// либо первое доступное. Ориентация, как и facingMode в браузере, желаемая.
func (m *MediaDevicesManager) resolve(ctx context.Context, req domain.StreamRequest) (string, string, error) {
	devices, err := m.EnumerateDevices(ctx)
	if err != nil {
		return "", "", err
	}

	if req.DeviceID != "" {
		for _, d := range devices {
			if d.ID == req.DeviceID {
				return d.ID, d.Label, nil
			}
		}
		return "", "", domain.NewError(domain.KindDeviceUnavailable, "поиск устройства", req.DeviceID, fs.ErrNotExist)
	}

	if len(devices) == 0 {
		return "", "", domain.NewError(domain.KindDeviceUnavailable, "поиск устройства", "", errors.New("нет видеоустройств"))
	}

	if req.FacingMode != domain.FacingNone {
		for _, d := range devices {
			if domain.FacingHint(d.Label) == req.FacingMode {
				return d.ID, d.Label, nil
			}
		}
		m.logger.Debug("Нет камеры с ориентацией %s, используется %s", req.FacingMode, devices[0].ID)
	}

	return devices[0].ID, devices[0].Label, nil
}

// MediaDevicesStream обертка для видеотрека MediaDevices
type MediaDevicesStream struct {
	track    *mediadevices.VideoTrack
	reader   video.Reader
	deviceID string
	profile  domain.TrackProfile

	readMutex sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// ID возвращает идентификатор трека
func (s *MediaDevicesStream) ID() string {
	return s.track.ID()
}

// DeviceID возвращает ID устройства
func (s *MediaDevicesStream) DeviceID() string {
	return s.deviceID
}

// Profile возвращает настройки и возможности трека
func (s *MediaDevicesStream) Profile() domain.TrackProfile {
	return s.profile
}

// ReadFrame читает следующий кадр. Кадры копируются, поэтому их можно
// держать после следующего вызова.
func (s *MediaDevicesStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.readMutex.Lock()
	defer s.readMutex.Unlock()

	if s.closed.Load() {
		return nil, errors.New("трек закрыт")
	}

	img, release, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	if release != nil {
		release()
	}
	return img, nil
}

// Close останавливает трек. Блокированное чтение при этом завершается с ошибкой.
func (s *MediaDevicesStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.track.Close()
	})
	return s.closeErr
}

func closeTracks(tracks []mediadevices.Track) {
	for _, track := range tracks {
		_ = track.Close()
	}
}

// classifyError сопоставляет ошибку GetUserMedia с категорией
func classifyError(deviceID string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return domain.NewError(domain.KindPermissionDenied, "открытие камеры", deviceID, err)
	}
	return domain.NewError(domain.KindDeviceUnavailable, "открытие камеры", deviceID, err)
}
