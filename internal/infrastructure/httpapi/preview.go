package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"camscope/internal/domain"
)

// mjpegBoundary разделитель частей multipart-потока
const mjpegBoundary = "frame"

// handlePreview отдаёт превью активной сессии как MJPEG. Поток завершается,
// когда клиент отключается или сессия переходит в Idle.
func (s *Server) handlePreview(c *gin.Context) {
	ctx := c.Request.Context()

	still, err := s.session.CaptureStill(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	var interval time.Duration
	if s.frameRate > 0 {
		interval = time.Second / time.Duration(s.frameRate)
	}

	for {
		if err := writePart(writer, still.JPEG); err != nil {
			return
		}
		flusher.Flush()

		if interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		} else if ctx.Err() != nil {
			return
		}

		still, err = s.session.CaptureStill(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrIdle) && ctx.Err() == nil {
				s.logger.Error("Ошибка кадра превью: %v", err)
			}
			return
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg))
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
