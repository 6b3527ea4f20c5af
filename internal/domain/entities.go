package domain

import (
	"fmt"
	"image"
	"time"
)

// FacingMode сигнал ориентации камеры, который сообщает платформа
type FacingMode string

const (
	FacingNone        FacingMode = ""
	FacingUser        FacingMode = "user"        // фронтальная
	FacingEnvironment FacingMode = "environment" // тыловая
)

// Opposite возвращает противоположную ориентацию; по умолчанию тыловую
func (f FacingMode) Opposite() FacingMode {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// ParseFacingMode разбирает строку ориентации
func ParseFacingMode(s string) (FacingMode, error) {
	switch FacingMode(s) {
	case FacingUser, FacingEnvironment:
		return FacingMode(s), nil
	case "front":
		return FacingUser, nil
	case "back", "rear":
		return FacingEnvironment, nil
	}
	return FacingNone, fmt.Errorf("неизвестная ориентация камеры: %q", s)
}

// Role физическое назначение камеры
type Role string

const (
	RoleFront       Role = "front"
	RoleWide        Role = "wide"
	RoleUltrawide   Role = "ultrawide"
	RoleTelephoto   Role = "telephoto"
	RoleMacro       Role = "macro"
	RoleExternal    Role = "external"
	RoleVirtual     Role = "virtual"
	RoleUnknownBack Role = "unknown-back" // Classify не выдаёт: тыловые без признаков считаются широкоугольными
	RoleStandard    Role = "standard"
)

// Orientation сторона устройства, на которую смотрит камера
type Orientation string

const (
	OrientationFront    Orientation = "front"
	OrientationBack     Orientation = "back"
	OrientationExternal Orientation = "external"
	OrientationUnknown  Orientation = "unknown"
)

// RawDeviceInfo устройство в том виде, в котором его отдаёт перечисление
type RawDeviceInfo struct {
	ID      string // Стабильный непрозрачный идентификатор
	GroupID string // Общий для узлов одного физического устройства, может быть пустым
	Label   string // Может быть пустым до выдачи разрешения
	Index   int    // Позиция в проходе перечисления, начиная с 1
}

// Range диапазон поддерживаемых значений параметра
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step,omitempty"`
}

// TrackSettings фактически применённые параметры трека
type TrackSettings struct {
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	AspectRatio float64    `json:"aspectRatio,omitempty"`
	FrameRate   float64    `json:"frameRate,omitempty"`
	FacingMode  FacingMode `json:"facingMode,omitempty"`
	DeviceID    string     `json:"deviceId,omitempty"`
}

// Pixels возвращает площадь кадра; отсутствующие размеры считаются нулём
func (s TrackSettings) Pixels() int64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return int64(s.Width) * int64(s.Height)
}

// Resolution возвращает фактическое разрешение трека
func (s TrackSettings) Resolution() Resolution {
	return Resolution{Width: s.Width, Height: s.Height}
}

// TrackCapabilities поддерживаемые диапазоны и перечисления.
// nil означает, что устройство параметр не поддерживает.
type TrackCapabilities struct {
	Zoom                 *Range       `json:"zoom,omitempty"`
	FocusDistance        *Range       `json:"focusDistance,omitempty"`
	FocusMode            []string     `json:"focusMode,omitempty"`
	ExposureMode         []string     `json:"exposureMode,omitempty"`
	ExposureCompensation *Range       `json:"exposureCompensation,omitempty"`
	WhiteBalanceMode     []string     `json:"whiteBalanceMode,omitempty"`
	ColorTemperature     *Range       `json:"colorTemperature,omitempty"`
	ISO                  *Range       `json:"iso,omitempty"`
	Brightness           *Range       `json:"brightness,omitempty"`
	Contrast             *Range       `json:"contrast,omitempty"`
	Saturation           *Range       `json:"saturation,omitempty"`
	Sharpness            *Range       `json:"sharpness,omitempty"`
	Torch                *bool        `json:"torch,omitempty"`
	Width                *Range       `json:"width,omitempty"`
	Height               *Range       `json:"height,omitempty"`
	FrameRate            *Range       `json:"frameRate,omitempty"`
	AspectRatio          *Range       `json:"aspectRatio,omitempty"`
	FacingMode           []FacingMode `json:"facingMode,omitempty"`
	ResizeMode           []string     `json:"resizeMode,omitempty"`
}

// TrackProfile снимок настроек и возможностей трека, снятый при пробном открытии
type TrackProfile struct {
	Settings     TrackSettings     `json:"settings"`
	Capabilities TrackCapabilities `json:"capabilities"`
}

// CameraDescriptor классифицированная камера. После Classify не изменяется.
type CameraDescriptor struct {
	DeviceID     string       `json:"deviceId"`
	DisplayLabel string       `json:"label"`
	Role         Role         `json:"role"`
	Orientation  Orientation  `json:"orientation"`
	IsExternal   bool         `json:"external"`
	Icon         string       `json:"icon"`
	Description  string       `json:"description"`
	Profile      TrackProfile `json:"profile"`
}

// Resolution размеры кадра в пикселях
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Resolution) String() string {
	if r.Width <= 0 || r.Height <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d × %d", r.Width, r.Height)
}

// StreamRequest параметры захвата: точный ID устройства либо ориентация
type StreamRequest struct {
	DeviceID   string
	FacingMode FacingMode
	Ideal      Resolution // Желаемое, но не обязательное разрешение
}

func (r StreamRequest) String() string {
	switch {
	case r.DeviceID != "":
		return "device=" + r.DeviceID
	case r.FacingMode != FacingNone:
		return "facing=" + string(r.FacingMode)
	default:
		return "any"
	}
}

// Still кадр, скопированный из активного потока
type Still struct {
	DeviceID   string
	Image      image.Image
	JPEG       []byte
	CapturedAt time.Time
}

// VideoFrame кадр превью
type VideoFrame struct {
	Data   []byte // Данные кадра в JPEG
	Size   int    // Размер данных в байтах
	Number int    // Номер кадра
}
