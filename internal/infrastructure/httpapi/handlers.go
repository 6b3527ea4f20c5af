package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"camscope/internal/domain"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CamerasResponse каталог камер
type CamerasResponse struct {
	ID        string                    `json:"id,omitempty"`
	ScannedAt time.Time                 `json:"scannedAt"`
	Cameras   []domain.CameraDescriptor `json:"cameras"`
	Message   string                    `json:"message,omitempty"`
}

// SessionRequest выбор камеры: по ID устройства или по ориентации
type SessionRequest struct {
	DeviceID   string `json:"deviceId"`
	FacingMode string `json:"facingMode"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func (s *Server) handleCameras(c *gin.Context) {
	c.JSON(http.StatusOK, catalogResponse(s.scanner.Current()))
}

func (s *Server) handleRescan(c *gin.Context) {
	catalog, err := s.scanner.Scan(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogResponse(catalog))
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStart(c *gin.Context) {
	s.bindAndRun(c, s.session.StartDevice, s.session.StartFacing)
}

func (s *Server) handleSwitch(c *gin.Context) {
	s.bindAndRun(c, s.session.SwitchDevice, s.session.SwitchFacing)
}

func (s *Server) handleToggle(c *gin.Context) {
	if err := s.session.ToggleFacing(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.session.Stop(); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStill(c *gin.Context) {
	still, err := s.session.CaptureStill(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", still.JPEG)
}

func (s *Server) bindAndRun(
	c *gin.Context,
	byDevice func(ctx context.Context, deviceID string) error,
	byFacing func(ctx context.Context, facing domain.FacingMode) error,
) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	var err error
	switch {
	case req.DeviceID != "":
		err = byDevice(c.Request.Context(), req.DeviceID)
	case req.FacingMode != "":
		facing, parseErr := domain.ParseFacingMode(req.FacingMode)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "invalid_request",
				Message:   parseErr.Error(),
				Timestamp: time.Now(),
			})
			return
		}
		err = byFacing(c.Request.Context(), facing)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "нужно указать deviceId или facingMode",
			Timestamp: time.Now(),
		})
		return
	}

	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func catalogResponse(catalog domain.Catalog) CamerasResponse {
	resp := CamerasResponse{
		ID:        catalog.ID,
		ScannedAt: catalog.ScannedAt,
		Cameras:   catalog.Cameras,
	}
	if resp.Cameras == nil {
		resp.Cameras = []domain.CameraDescriptor{}
	}
	if catalog.Empty() {
		resp.Message = domain.NoCameraMessage
	}
	return resp
}

// writeError отвечает статусом по категории ошибки
func (s *Server) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Ошибка запроса %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	resp := ErrorResponse{
		Error:     string(kind),
		Message:   err.Error(),
		Timestamp: time.Now(),
	}
	if resp.Error == "" {
		resp.Error = "internal"
	}
	var typed *domain.Error
	if errors.As(err, &typed) {
		resp.DeviceID = typed.DeviceID
	}
	c.JSON(status, resp)
}

func statusFor(kind domain.ErrorKind, err error) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindIdle:
		return http.StatusConflict
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindUnsupportedPlatform:
		return http.StatusNotImplemented
	case domain.KindStreamAcquisitionFailed:
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return http.StatusNotFound
		case errors.Is(err, domain.ErrPermissionDenied):
			return http.StatusForbidden
		}
		return http.StatusServiceUnavailable
	case domain.KindDeviceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
