package application

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// DefaultJPEGQuality качество JPEG, если в конфигурации не задано
const DefaultJPEGQuality = 85

// EncodeJPEG кодирует кадр в JPEG
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("пустой кадр")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("кодирование JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
