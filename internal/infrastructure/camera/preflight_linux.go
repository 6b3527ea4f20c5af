//go:build linux

package camera

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"camscope/internal/domain"
)

// videoDevicePattern узлы V4L2
const videoDevicePattern = "/dev/video*"

// preflight проверяет, что к узлам V4L2 есть доступ на чтение и запись.
// Отсутствие узлов не ошибка: каталог будет пустым.
func preflight() error {
	nodes, err := filepath.Glob(videoDevicePattern)
	if err != nil {
		return domain.NewError(domain.KindUnsupportedPlatform, "поиск узлов V4L2", "", err)
	}
	return checkNodes(nodes, func(path string) error {
		return unix.Access(path, unix.R_OK|unix.W_OK)
	})
}

func checkNodes(nodes []string, access func(string) error) error {
	if len(nodes) == 0 {
		return nil
	}

	var denied []string
	for _, node := range nodes {
		if err := access(node); err != nil {
			denied = append(denied, node)
		}
	}
	if len(denied) < len(nodes) {
		return nil
	}

	return domain.NewError(domain.KindPermissionDenied, "проверка доступа к камерам", "",
		fmt.Errorf("нет прав на %s; добавьте пользователя в группу video", strings.Join(denied, ", ")))
}
