package camera

import (
	"image"
	"math"
	"regexp"
	"strings"

	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/prop"

	"camscope/internal/domain"
)

// labelSeparator разделяет части метки драйвера камеры:
// /dev/video0;/dev/v4l/by-path/pci-0000:00:14.0-usb-0:1:1.0-video-index0
const labelSeparator = ";"

var videoIndexSuffix = regexp.MustCompile(`-video-index\d+$`)

// GroupID выводит общий идентификатор физического устройства из метки
// драйвера. Узлы одной USB-камеры отличаются только суффиксом video-indexN.
func GroupID(label string) string {
	parts := strings.Split(label, labelSeparator)
	if len(parts) < 2 {
		return ""
	}
	path := strings.TrimSpace(parts[len(parts)-1])
	if !strings.Contains(path, "/by-path/") && !strings.Contains(path, "/by-id/") {
		return ""
	}
	return videoIndexSuffix.ReplaceAllString(path, "")
}

// driverProperties возвращает поддерживаемые форматы открытого драйвера
func driverProperties(deviceID string) []prop.Media {
	drivers := driver.GetManager().Query(func(d driver.Driver) bool {
		return d.ID() == deviceID
	})
	if len(drivers) == 0 {
		return nil
	}
	return drivers[0].Properties()
}

// buildProfile собирает аналог getSettings()/getCapabilities() из размеров
// кадра и свойств драйвера
func buildProfile(deviceID, label string, bounds image.Rectangle, props []prop.Media) domain.TrackProfile {
	settings := domain.TrackSettings{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		FacingMode: domain.FacingHint(label),
		DeviceID:   deviceID,
	}
	if settings.Width > 0 && settings.Height > 0 {
		settings.AspectRatio = roundRatio(float64(settings.Width) / float64(settings.Height))
	}

	caps := domain.TrackCapabilities{}
	if settings.FacingMode != domain.FacingNone {
		caps.FacingMode = []domain.FacingMode{settings.FacingMode}
	}

	var width, height, frameRate, aspect *domain.Range
	for _, p := range props {
		if p.Width <= 0 || p.Height <= 0 {
			continue
		}
		width = extend(width, float64(p.Width))
		height = extend(height, float64(p.Height))
		aspect = extend(aspect, roundRatio(float64(p.Width)/float64(p.Height)))
		if p.FrameRate > 0 {
			fps := float64(p.FrameRate)
			frameRate = extend(frameRate, fps)
			if p.Width == settings.Width && p.Height == settings.Height && fps > settings.FrameRate {
				settings.FrameRate = fps
			}
		}
	}
	caps.Width, caps.Height, caps.FrameRate, caps.AspectRatio = width, height, frameRate, aspect

	return domain.TrackProfile{Settings: settings, Capabilities: caps}
}

func extend(r *domain.Range, v float64) *domain.Range {
	if r == nil {
		return &domain.Range{Min: v, Max: v}
	}
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
	return r
}

func roundRatio(v float64) float64 {
	return math.Round(v*100) / 100
}
