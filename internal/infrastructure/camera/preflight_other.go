//go:build !linux

package camera

import (
	"fmt"
	"runtime"

	"camscope/internal/domain"
)

// preflight на macOS и Windows драйвер mediadevices работает без проверок;
// на остальных платформах камер нет
func preflight() error {
	switch runtime.GOOS {
	case "darwin", "windows":
		return nil
	default:
		return domain.NewError(domain.KindUnsupportedPlatform, "проверка платформы", "",
			fmt.Errorf("драйвер камеры для %s отсутствует", runtime.GOOS))
	}
}
