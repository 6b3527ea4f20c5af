package domain

import (
	"strings"
	"time"
)

// NoCameraMessage текст для пустого каталога
const NoCameraMessage = "no camera detected"

// Catalog упорядоченный список камер одного прохода сканирования
type Catalog struct {
	ID        string             `json:"id"`
	ScannedAt time.Time          `json:"scannedAt"`
	Cameras   []CameraDescriptor `json:"cameras"`
}

// NewCatalog строит каталог из результатов классификации
func NewCatalog(id string, scannedAt time.Time, descriptors []CameraDescriptor) Catalog {
	return Catalog{
		ID:        id,
		ScannedAt: scannedAt,
		Cameras:   Dedupe(descriptors),
	}
}

// Len возвращает количество камер
func (c Catalog) Len() int {
	return len(c.Cameras)
}

// Empty сообщает, что камер не обнаружено
func (c Catalog) Empty() bool {
	return len(c.Cameras) == 0
}

// Find ищет камеру по ID устройства
func (c Catalog) Find(deviceID string) (CameraDescriptor, bool) {
	for _, cam := range c.Cameras {
		if cam.DeviceID == deviceID {
			return cam, true
		}
	}
	return CameraDescriptor{}, false
}

// FirstFacing возвращает первую камеру с заданной ориентацией
func (c Catalog) FirstFacing(facing FacingMode) (CameraDescriptor, bool) {
	want := OrientationBack
	if facing == FacingUser {
		want = OrientationFront
	}
	for _, cam := range c.Cameras {
		if ResolvedOrientation(cam) == want {
			return cam, true
		}
	}
	return CameraDescriptor{}, false
}

// UniqueDevices убирает повторы с одинаковыми groupId и меткой (без учёта
// регистра). Некоторые драйверы отдают один физический сенсор несколько раз.
func UniqueDevices(devices []RawDeviceInfo) []RawDeviceInfo {
	seen := make(map[string]struct{}, len(devices))
	unique := make([]RawDeviceInfo, 0, len(devices))
	for _, d := range devices {
		key := d.GroupID + "|" + strings.ToLower(d.Label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, d)
	}
	return unique
}
