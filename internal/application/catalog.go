package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"camscope/internal/domain"
)

// DefaultProbeResolution желаемое разрешение пробного открытия: драйвер
// отдаёт максимум, который поддерживает сенсор
var DefaultProbeResolution = domain.Resolution{Width: 4096, Height: 2160}

// CatalogService строит каталог камер: перечисление, пробное открытие каждого
// устройства, классификация и удаление дублей
type CatalogService struct {
	platform Platform
	history  HistoryRecorder
	logger   Logger
	probe    domain.Resolution
	now      func() time.Time

	scanMutex sync.Mutex // Сканирования не пересекаются
	mutex     sync.RWMutex
	current   domain.Catalog
}

// CatalogOption настраивает CatalogService
type CatalogOption func(*CatalogService)

// WithHistory сохраняет каждый каталог в историю
func WithHistory(history HistoryRecorder) CatalogOption {
	return func(s *CatalogService) {
		s.history = history
	}
}

// WithProbeResolution задаёт желаемое разрешение пробного открытия
func WithProbeResolution(res domain.Resolution) CatalogOption {
	return func(s *CatalogService) {
		if res.Width > 0 && res.Height > 0 {
			s.probe = res
		}
	}
}

// NewCatalogService создаёт сервис каталога
func NewCatalogService(platform Platform, logger Logger, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{
		platform: platform,
		logger:   logger,
		probe:    DefaultProbeResolution,
		now:      time.Now,
		current:  domain.NewCatalog("", time.Time{}, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan перечисляет устройства и строит новый каталог, полностью заменяя
// предыдущий. Ошибка пробного открытия отдельного устройства не прерывает
// сканирование: устройство просто не попадает в каталог.
func (s *CatalogService) Scan(ctx context.Context) (domain.Catalog, error) {
	s.scanMutex.Lock()
	defer s.scanMutex.Unlock()

	if err := s.platform.Supported(); err != nil {
		s.logger.Error("Платформа не поддерживается: %v", err)
		return domain.Catalog{}, err
	}

	devices, err := s.platform.EnumerateDevices(ctx)
	if err != nil {
		s.logger.Error("Ошибка перечисления устройств: %v", err)
		return domain.Catalog{}, asKind(domain.KindDeviceUnavailable, "перечисление устройств", "", err)
	}

	scanID := uuid.NewString()
	if len(devices) == 0 {
		s.logger.Info("Камеры не обнаружены")
		return s.publish(ctx, domain.NewCatalog(scanID, s.now(), nil)), nil
	}

	if err := s.warmUp(ctx); err != nil {
		return domain.Catalog{}, err
	}

	unique := domain.UniqueDevices(devices)
	descriptors := make([]domain.CameraDescriptor, 0, len(unique))

	for i, device := range unique {
		if err := ctx.Err(); err != nil {
			return domain.Catalog{}, err
		}

		s.logger.Debug("Проверка камеры %d/%d: %s", i+1, len(unique), device.ID)

		profile, err := s.probeDevice(ctx, device)
		if err != nil {
			s.logger.Error("Не удалось получить информацию об устройстве %s (%s): %v", device.Label, device.ID, err)
			continue
		}

		descriptors = append(descriptors, domain.Classify(device, profile))
	}

	catalog := domain.NewCatalog(scanID, s.now(), descriptors)
	s.logger.Info("Сканирование завершено: устройств %d, камер в каталоге %d", len(devices), catalog.Len())

	return s.publish(ctx, catalog), nil
}

// Current возвращает последний построенный каталог
func (s *CatalogService) Current() domain.Catalog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.current
}

// Find ищет камеру в текущем каталоге
func (s *CatalogService) Find(deviceID string) (domain.CameraDescriptor, bool) {
	return s.Current().Find(deviceID)
}

// warmUp запрашивает доступ к любой камере и сразу освобождает её, чтобы
// платформа выдала метки устройств
func (s *CatalogService) warmUp(ctx context.Context) error {
	stream, err := s.platform.Acquire(ctx, domain.StreamRequest{})
	if err != nil {
		s.logger.Error("Нет доступа к камере: %v", err)
		return asKind(domain.KindPermissionDenied, "запрос доступа к камере", "", err)
	}
	if err := stream.Close(); err != nil {
		s.logger.Error("Ошибка закрытия пробного потока: %v", err)
	}
	return nil
}

// probeDevice открывает устройство, снимает профиль трека и закрывает поток
// до перехода к следующему устройству
func (s *CatalogService) probeDevice(ctx context.Context, device domain.RawDeviceInfo) (domain.TrackProfile, error) {
	stream, err := s.platform.Acquire(ctx, domain.StreamRequest{DeviceID: device.ID, Ideal: s.probe})
	if err != nil {
		return domain.TrackProfile{}, err
	}

	profile := stream.Profile()
	if profile.Settings.DeviceID == "" {
		profile.Settings.DeviceID = device.ID
	}

	if err := stream.Close(); err != nil {
		s.logger.Error("Ошибка закрытия потока %s: %v", device.ID, err)
	}
	return profile, nil
}

func (s *CatalogService) publish(ctx context.Context, catalog domain.Catalog) domain.Catalog {
	s.mutex.Lock()
	s.current = catalog
	s.mutex.Unlock()

	if s.history != nil {
		if err := s.history.Record(ctx, catalog); err != nil {
			s.logger.Error("Ошибка сохранения истории сканирования: %v", err)
		}
	}
	return catalog
}

// asKind оборачивает ошибку в типизированную, если у неё ещё нет категории
func asKind(kind domain.ErrorKind, op, deviceID string, err error) error {
	if known := domain.KindOf(err); known != "" {
		return err
	}
	return domain.NewError(kind, op, deviceID, err)
}
