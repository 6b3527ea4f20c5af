package application

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"camscope/internal/domain"
)

func newTestSession(t *testing.T, opts ...SessionOption) (*SessionManager, *fakePlatform, *CatalogService) {
	t.Helper()
	platform := phonePlatform()
	catalog := NewCatalogService(platform, nopLogger{})
	if _, err := catalog.Scan(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	platform.maxOpen = 0
	return NewSessionManager(platform, catalog, nopLogger{}, opts...), platform, catalog
}

func TestSessionManager_StartTwiceKeepsOneStream(t *testing.T) {
	ctx := context.Background()
	manager, platform, _ := newTestSession(t)

	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("First start failed: %v", err)
	}
	if err := manager.StartDevice(ctx, "front-1"); err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	if platform.maxOpen != 1 {
		t.Errorf("Expected never more than one open stream, got %d", platform.maxOpen)
	}
	if platform.openStreams() != 1 {
		t.Errorf("Expected exactly one live stream, got %d", platform.openStreams())
	}
	if manager.State() != StateActive {
		t.Errorf("Expected active state, got %s", manager.State())
	}

	snapshot := manager.Snapshot()
	if snapshot.DeviceID != "front-1" {
		t.Errorf("Expected front-1 to be bound, got %s", snapshot.DeviceID)
	}
	if snapshot.Camera == nil || snapshot.Camera.Role != domain.RoleFront {
		t.Errorf("Expected front descriptor in snapshot, got %+v", snapshot.Camera)
	}
	if snapshot.Resolution != (domain.Resolution{Width: 1280, Height: 720}) {
		t.Errorf("Unexpected resolution %v", snapshot.Resolution)
	}
}

func TestSessionManager_SwitchFailureReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	manager, platform, _ := newTestSession(t)

	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first := platform.streams[len(platform.streams)-1]

	platform.fail("front-1", domain.ErrDeviceUnavailable)
	err := manager.SwitchDevice(ctx, "front-1")
	if !errors.Is(err, domain.ErrStreamAcquisitionFailed) {
		t.Fatalf("Expected stream acquisition error, got %v", err)
	}
	if !errors.Is(err, domain.ErrDeviceUnavailable) {
		t.Errorf("Expected cause to be preserved, got %v", err)
	}
	if manager.State() != StateIdle {
		t.Fatalf("Expected idle after failed switch, got %s", manager.State())
	}
	if !first.isClosed() {
		t.Error("Expected previous stream to be torn down")
	}
	if platform.openStreams() != 0 {
		t.Errorf("Expected no open streams, got %d", platform.openStreams())
	}

	platform.heal("front-1")
	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("Expected restart after failure to succeed, got %v", err)
	}
	if manager.State() != StateActive {
		t.Errorf("Expected active state, got %s", manager.State())
	}
}

func TestSessionManager_StartFacingAndToggle(t *testing.T) {
	ctx := context.Background()
	manager, platform, _ := newTestSession(t)

	if manager.Facing() != domain.FacingEnvironment {
		t.Fatalf("Expected environment as default facing, got %s", manager.Facing())
	}

	if err := manager.StartFacing(ctx, domain.FacingEnvironment); err != nil {
		t.Fatalf("StartFacing failed: %v", err)
	}
	if got := manager.Snapshot().DeviceID; got != "back-2" {
		t.Errorf("Expected catalog back camera back-2 for environment facing, got %s", got)
	}

	if err := manager.ToggleFacing(ctx); err != nil {
		t.Fatalf("ToggleFacing failed: %v", err)
	}
	if manager.Facing() != domain.FacingUser {
		t.Errorf("Expected user facing after toggle, got %s", manager.Facing())
	}
	snapshot := manager.Snapshot()
	if snapshot.DeviceID != "front-1" || snapshot.FacingMode != domain.FacingUser {
		t.Errorf("Expected front-1 with user facing, got %+v", snapshot)
	}
	if platform.maxOpen != 1 {
		t.Errorf("Expected never more than one open stream, got %d", platform.maxOpen)
	}
}

func TestSessionManager_StopIsIdempotent(t *testing.T) {
	ctx := context.Background()
	manager, platform, _ := newTestSession(t)

	if err := manager.Stop(); err != nil {
		t.Fatalf("Stop on idle manager failed: %v", err)
	}
	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := manager.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := manager.Stop(); err != nil {
		t.Fatalf("Second stop failed: %v", err)
	}
	if manager.State() != StateIdle || platform.openStreams() != 0 {
		t.Fatalf("Expected idle with no open streams")
	}
	if snapshot := manager.Snapshot(); snapshot.State != StateIdle || snapshot.Camera != nil {
		t.Errorf("Expected empty idle snapshot, got %+v", snapshot)
	}
}

func TestSessionManager_EmptyDeviceID(t *testing.T) {
	manager, platform, _ := newTestSession(t)
	before := len(platform.acquired)

	err := manager.StartDevice(context.Background(), "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected not found error, got %v", err)
	}
	if len(platform.acquired) != before {
		t.Error("Expected no acquisition for empty device id")
	}
}

func TestSessionManager_CaptureStill(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestSession(t)

	if _, err := manager.CaptureStill(ctx); !errors.Is(err, domain.ErrIdle) {
		t.Fatalf("Expected idle error, got %v", err)
	}

	if err := manager.StartDevice(ctx, "ultra-3"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	still, err := manager.CaptureStill(ctx)
	if err != nil {
		t.Fatalf("CaptureStill failed: %v", err)
	}
	if still.DeviceID != "ultra-3" {
		t.Errorf("Expected still from ultra-3, got %s", still.DeviceID)
	}
	if len(still.JPEG) < 2 || still.JPEG[0] != 0xFF || still.JPEG[1] != 0xD8 {
		t.Errorf("Expected JPEG data")
	}
}

func TestSessionManager_DeviceLock(t *testing.T) {
	ctx := context.Background()
	lock := &fakeLock{}
	manager, platform, _ := newTestSession(t, WithDeviceLock(lock))

	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !lock.isHeld() {
		t.Fatal("Expected lock to be held while active")
	}
	if err := manager.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if lock.isHeld() {
		t.Fatal("Expected lock to be released after stop")
	}

	platform.fail("front-1", domain.ErrPermissionDenied)
	if err := manager.StartDevice(ctx, "front-1"); err == nil {
		t.Fatal("Expected start to fail")
	}
	if lock.isHeld() {
		t.Fatal("Expected lock to be released after failed start")
	}

	lock.denied = true
	err := manager.StartDevice(ctx, "back-2")
	if !errors.Is(err, domain.ErrDeviceUnavailable) || manager.State() != StateIdle {
		t.Fatalf("Expected busy error and idle state, got %v / %s", err, manager.State())
	}
}

// recordingStreamer считает кадры, переданные в превью
type recordingStreamer struct {
	mu      sync.Mutex
	frames  int
	stopped int
}

func (r *recordingStreamer) StartStreaming(ctx context.Context, stream Stream, _ PreviewConfig) error {
	for {
		if _, err := stream.ReadFrame(ctx); err != nil {
			return nil
		}
		r.mu.Lock()
		r.frames++
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
}

func (r *recordingStreamer) StopStreaming() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return nil
}

func (r *recordingStreamer) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func TestSessionManager_StreamsPreview(t *testing.T) {
	ctx := context.Background()
	streamer := &recordingStreamer{}
	manager, platform, _ := newTestSession(t, WithStreamManager(streamer))

	if err := manager.StartDevice(ctx, "back-2"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for streamer.frameCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if streamer.frameCount() == 0 {
		t.Fatal("Expected preview frames to be streamed")
	}

	if err := manager.SwitchDevice(ctx, "front-1"); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	if err := manager.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if streamer.stopped != 2 {
		t.Errorf("Expected streaming stopped for both sessions, got %d", streamer.stopped)
	}
	if platform.openStreams() != 0 {
		t.Errorf("Expected no open streams, got %d", platform.openStreams())
	}
}

func TestSessionManager_FacingWithoutCatalogMatch(t *testing.T) {
	ctx := context.Background()
	platform := phonePlatform()
	catalog := staticCatalog{catalog: domain.NewCatalog("scan-1", time.Time{}, nil)}
	manager := NewSessionManager(platform, catalog, nopLogger{})

	if err := manager.StartFacing(ctx, domain.FacingUser); err != nil {
		t.Fatalf("StartFacing failed: %v", err)
	}
	last := platform.acquired[len(platform.acquired)-1]
	if last.DeviceID != "" || last.FacingMode != domain.FacingUser {
		t.Errorf("Expected facing request passed to platform, got %+v", last)
	}
	if got := manager.Snapshot().DeviceID; got != "front-1" {
		t.Errorf("Expected front-1, got %s", got)
	}
}

func TestSessionManager_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	manager, platform, _ := newTestSession(t)

	if err := manager.StartFacing(ctx, domain.FacingEnvironment); err != nil {
		t.Fatalf("StartFacing failed: %v", err)
	}
	before := len(platform.acquired)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- manager.ToggleFacing(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ToggleFacing failed: %v", err)
		}
	}

	toggled := platform.acquired[before:]
	if len(toggled) != 2 {
		t.Fatalf("Expected 2 acquisitions, got %d", len(toggled))
	}
	if toggled[0].FacingMode != domain.FacingUser || toggled[1].FacingMode != domain.FacingEnvironment {
		t.Errorf("Expected user then environment, got %s then %s", toggled[0].FacingMode, toggled[1].FacingMode)
	}
	if manager.Facing() != domain.FacingEnvironment {
		t.Errorf("Expected environment after two toggles, got %s", manager.Facing())
	}
	if platform.maxOpen != 1 {
		t.Errorf("Expected never more than one open stream, got %d", platform.maxOpen)
	}
}

// stalledStream блокирует чтение кадра до Close, как зависшая камера
type stalledStream struct {
	reading     chan struct{}
	readingOnce sync.Once
	closed      chan struct{}
	closeOnce   sync.Once
}

func newStalledStream() *stalledStream {
	return &stalledStream{reading: make(chan struct{}), closed: make(chan struct{})}
}

func (s *stalledStream) ID() string                   { return "track-stalled" }
func (s *stalledStream) DeviceID() string             { return "cam-0" }
func (s *stalledStream) Profile() domain.TrackProfile { return domain.TrackProfile{} }

func (s *stalledStream) ReadFrame(context.Context) (image.Image, error) {
	s.readingOnce.Do(func() { close(s.reading) })
	<-s.closed
	return nil, errors.New("трек закрыт")
}

func (s *stalledStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

type stalledPlatform struct {
	stream *stalledStream
}

func (stalledPlatform) Supported() error { return nil }

func (stalledPlatform) EnumerateDevices(context.Context) ([]domain.RawDeviceInfo, error) {
	return []domain.RawDeviceInfo{{ID: "cam-0", Label: "USB Camera"}}, nil
}

func (p stalledPlatform) Acquire(context.Context, domain.StreamRequest) (Stream, error) {
	return p.stream, nil
}

func TestSessionManager_StopDuringStalledStill(t *testing.T) {
	stream := newStalledStream()
	manager := NewSessionManager(stalledPlatform{stream: stream}, nil, nopLogger{})

	if err := manager.StartDevice(context.Background(), "cam-0"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	stillErr := make(chan error, 1)
	go func() {
		_, err := manager.CaptureStill(ctx)
		stillErr <- err
	}()

	select {
	case <-stream.reading:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the still read to start")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- manager.Stop() }()

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked while a still was being read")
	}

	select {
	case err := <-stillErr:
		if !errors.Is(err, domain.ErrIdle) {
			t.Errorf("Expected idle error after stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CaptureStill did not return after stop")
	}
	if manager.State() != StateIdle {
		t.Errorf("Expected idle state, got %s", manager.State())
	}
}
