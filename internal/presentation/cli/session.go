package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"camscope/internal/application"
	"camscope/internal/domain"
)

// cameraSelection флаги выбора камеры
type cameraSelection struct {
	device string
	facing string
}

func (s *cameraSelection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.device, "device", "d", "", "ID устройства камеры")
	cmd.Flags().StringVarP(&s.facing, "facing", "f", "", "Ориентация камеры: environment или user (по умолчанию из конфигурации)")
}

// start открывает превью выбранной камеры
func (s *cameraSelection) start(ctx context.Context, manager *application.SessionManager, defaultFacing string) error {
	if device := strings.TrimSpace(s.device); device != "" {
		return manager.StartDevice(ctx, device)
	}

	value := strings.TrimSpace(s.facing)
	if value == "" {
		value = defaultFacing
	}
	facing, err := domain.ParseFacingMode(strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("--facing: %w", err)
	}
	return manager.StartFacing(ctx, facing)
}
