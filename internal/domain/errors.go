package domain

import (
	"errors"
	"fmt"
)

// ErrorKind категория ошибки работы с камерами
type ErrorKind string

const (
	KindUnsupportedPlatform     ErrorKind = "unsupported_platform"
	KindPermissionDenied        ErrorKind = "permission_denied"
	KindDeviceUnavailable       ErrorKind = "device_unavailable"
	KindStreamAcquisitionFailed ErrorKind = "stream_acquisition_failed"
	KindNotFound                ErrorKind = "not_found"
	KindIdle                    ErrorKind = "idle"
)

var (
	// ErrUnsupportedPlatform медиа-API на этой платформе нет; повторять бессмысленно
	ErrUnsupportedPlatform = errors.New("платформа не поддерживает доступ к камерам")
	// ErrPermissionDenied доступ к устройству отклонён
	ErrPermissionDenied = errors.New("нет доступа к камере")
	// ErrDeviceUnavailable устройство занято или отключено
	ErrDeviceUnavailable = errors.New("камера недоступна")
	// ErrStreamAcquisitionFailed не удалось открыть поток для превью
	ErrStreamAcquisitionFailed = errors.New("не удалось открыть поток камеры")
	// ErrNotFound устройство отсутствует в каталоге
	ErrNotFound = errors.New("камера не найдена")
	// ErrIdle нет активного захвата
	ErrIdle = errors.New("нет активного захвата")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupportedPlatform:     ErrUnsupportedPlatform,
	KindPermissionDenied:        ErrPermissionDenied,
	KindDeviceUnavailable:       ErrDeviceUnavailable,
	KindStreamAcquisitionFailed: ErrStreamAcquisitionFailed,
	KindNotFound:                ErrNotFound,
	KindIdle:                    ErrIdle,
}

// kindOrder порядок проверки сентинелов в KindOf
var kindOrder = []ErrorKind{
	KindUnsupportedPlatform,
	KindPermissionDenied,
	KindDeviceUnavailable,
	KindStreamAcquisitionFailed,
	KindNotFound,
	KindIdle,
}

// Error ошибка с категорией. errors.Is сопоставляет её с сентинелом категории
// и с исходной причиной.
type Error struct {
	Kind     ErrorKind
	DeviceID string
	Op       string
	Err      error
}

// NewError создаёт типизированную ошибку
func NewError(kind ErrorKind, op, deviceID string, cause error) *Error {
	return &Error{Kind: kind, Op: op, DeviceID: deviceID, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Op
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.DeviceID != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.DeviceID)
	}
	if sentinel := kindSentinels[e.Kind]; sentinel != nil {
		msg = fmt.Sprintf("%s: %v", msg, sentinel)
	}
	if e.Err != nil && !errors.Is(e.Err, kindSentinels[e.Kind]) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с сентинелом её категории
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf возвращает категорию ошибки или пустую строку
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	for _, kind := range kindOrder {
		if errors.Is(err, kindSentinels[kind]) {
			return kind
		}
	}
	return ""
}
