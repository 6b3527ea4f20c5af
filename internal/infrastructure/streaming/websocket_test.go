package streaming

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"camscope/internal/application"
	"camscope/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}

// solidStream отдаёт одноцветные кадры
type solidStream struct{}

func (solidStream) ID() string                   { return "track-1" }
func (solidStream) DeviceID() string             { return "cam-1" }
func (solidStream) Profile() domain.TrackProfile { return domain.TrackProfile{} }
func (solidStream) Close() error                 { return nil }

func (solidStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.White)
	time.Sleep(2 * time.Millisecond)
	return img, nil
}

// relay принимает кадры, как ретранслятор
func newRelay(t *testing.T) (*httptest.Server, <-chan []byte) {
	t.Helper()
	frames := make(chan []byte, 64)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				select {
				case frames <- data:
				default:
				}
			}
		}
	}))
	t.Cleanup(server.Close)
	return server, frames
}

func TestWebSocketStreamer_SendsJPEGFrames(t *testing.T) {
	server, frames := newRelay(t)
	streamer := NewWebSocketStreamer(nopLogger{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	config := application.PreviewConfig{
		StreamingURL: "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		JPEGQuality:  70,
	}

	var wg sync.WaitGroup
	var streamErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		streamErr = streamer.StartStreaming(ctx, solidStream{}, config)
	}()

	select {
	case data := <-frames:
		if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
			t.Errorf("Expected JPEG frame, got %d bytes", len(data))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for a frame")
	}

	cancel()
	if err := streamer.StopStreaming(); err != nil {
		t.Fatalf("StopStreaming failed: %v", err)
	}
	wg.Wait()

	if streamErr != nil {
		t.Errorf("Expected clean shutdown, got %v", streamErr)
	}
	if streamer.IsConnected() {
		t.Error("Expected streamer to be disconnected")
	}
	if streamer.Sent() < 1 {
		t.Errorf("Expected sent frame count to survive stop, got %d", streamer.Sent())
	}
}

func TestWebSocketStreamer_InvalidURL(t *testing.T) {
	streamer := NewWebSocketStreamer(nopLogger{}, false)
	err := streamer.StartStreaming(context.Background(), solidStream{}, application.PreviewConfig{StreamingURL: "http://localhost/ws"})
	if err == nil {
		t.Fatal("Expected error for non-websocket URL")
	}
}

func TestWebSocketStreamer_StopWhenIdle(t *testing.T) {
	streamer := NewWebSocketStreamer(nopLogger{}, false)
	if err := streamer.StopStreaming(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
