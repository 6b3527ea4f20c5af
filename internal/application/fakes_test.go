package application

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"camscope/internal/domain"
)

// fakePlatform платформа в памяти: считает одновременно открытые потоки
type fakePlatform struct {
	mu          sync.Mutex
	unsupported bool
	devices     []domain.RawDeviceInfo
	profiles    map[string]domain.TrackProfile
	failing     map[string]error
	anyErr      error
	open        int
	maxOpen     int
	acquired    []domain.StreamRequest
	streams     []*fakeStream
}

func newFakePlatform(devices ...domain.RawDeviceInfo) *fakePlatform {
	return &fakePlatform{
		devices:  devices,
		profiles: make(map[string]domain.TrackProfile),
		failing:  make(map[string]error),
	}
}

func (p *fakePlatform) withProfile(id string, settings domain.TrackSettings) *fakePlatform {
	p.profiles[id] = domain.TrackProfile{Settings: settings}
	return p
}

func (p *fakePlatform) fail(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[id] = err
}

func (p *fakePlatform) heal(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failing, id)
}

func (p *fakePlatform) openStreams() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *fakePlatform) Supported() error {
	if p.unsupported {
		return domain.NewError(domain.KindUnsupportedPlatform, "проверка платформы", "", nil)
	}
	return nil
}

func (p *fakePlatform) EnumerateDevices(_ context.Context) ([]domain.RawDeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.RawDeviceInfo, len(p.devices))
	copy(out, p.devices)
	return out, nil
}

func (p *fakePlatform) Acquire(_ context.Context, req domain.StreamRequest) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acquired = append(p.acquired, req)

	deviceID := req.DeviceID
	switch {
	case deviceID != "":
	case req.FacingMode != domain.FacingNone:
		for _, d := range p.devices {
			if p.profiles[d.ID].Settings.FacingMode == req.FacingMode {
				deviceID = d.ID
				break
			}
		}
		if deviceID == "" {
			return nil, fmt.Errorf("нет камеры с ориентацией %s: %w", req.FacingMode, domain.ErrDeviceUnavailable)
		}
	default:
		if p.anyErr != nil {
			return nil, p.anyErr
		}
		if len(p.devices) == 0 {
			return nil, domain.ErrDeviceUnavailable
		}
		deviceID = p.devices[0].ID
	}

	if err, ok := p.failing[deviceID]; ok {
		return nil, err
	}
	known := false
	for _, d := range p.devices {
		if d.ID == deviceID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("устройство %s: %w", deviceID, domain.ErrDeviceUnavailable)
	}

	profile := p.profiles[deviceID]
	profile.Settings.DeviceID = deviceID

	p.open++
	if p.open > p.maxOpen {
		p.maxOpen = p.open
	}

	s := &fakeStream{platform: p, id: fmt.Sprintf("track-%d", len(p.acquired)), deviceID: deviceID, profile: profile}
	p.streams = append(p.streams, s)
	return s, nil
}

type fakeStream struct {
	platform *fakePlatform
	id       string
	deviceID string
	profile  domain.TrackProfile

	mu     sync.Mutex
	closed bool
	reads  int
}

func (s *fakeStream) ID() string                   { return s.id }
func (s *fakeStream) DeviceID() string             { return s.deviceID }
func (s *fakeStream) Profile() domain.TrackProfile { return s.profile }

func (s *fakeStream) ReadFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("трек закрыт")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reads++
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.platform.mu.Lock()
	s.platform.open--
	s.platform.mu.Unlock()
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// nopLogger логгер, который ничего не пишет
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}

type fakeLock struct {
	mu     sync.Mutex
	held   bool
	denied bool
	locks  int
}

func (l *fakeLock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied {
		return false, nil
	}
	l.held = true
	l.locks++
	return true, nil
}

func (l *fakeLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

func (l *fakeLock) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

type fakeHistory struct {
	mu       sync.Mutex
	catalogs []domain.Catalog
}

func (h *fakeHistory) Record(_ context.Context, c domain.Catalog) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.catalogs = append(h.catalogs, c)
	return nil
}

type staticCatalog struct {
	catalog domain.Catalog
}

func (c staticCatalog) Current() domain.Catalog { return c.catalog }
