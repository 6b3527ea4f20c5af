package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newSnapCommand(ctx *commandContext) *cobra.Command {
	var selection cameraSelection
	var output string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Сделать снимок с камеры в JPEG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service, err := ctx.catalogService()
			if err != nil {
				return err
			}
			if _, err := service.Scan(cmd.Context()); err != nil {
				return err
			}

			manager, err := ctx.sessionManager(service, nil)
			if err != nil {
				return err
			}
			defer manager.Stop()

			if err := selection.start(cmd.Context(), manager, cfg.Preview.Facing); err != nil {
				return err
			}

			still, err := manager.CaptureStill(cmd.Context())
			if err != nil {
				return err
			}

			target := strings.TrimSpace(output)
			if target == "" {
				target = fmt.Sprintf("camscope_%s.jpg", still.CapturedAt.Format("2006-01-02_15-04-05"))
			}
			if dir := filepath.Dir(target); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("создание каталога снимка: %w", err)
				}
			}
			if err := os.WriteFile(target, still.JPEG, 0o644); err != nil {
				return fmt.Errorf("запись снимка: %w", err)
			}

			snapshot := manager.Snapshot()
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"path":    target,
					"bytes":   len(still.JPEG),
					"session": snapshot,
				})
			}

			label := snapshot.DeviceID
			if snapshot.Camera != nil {
				label = snapshot.Camera.DisplayLabel
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Снимок %s (%s) сохранён в %s\n", label, snapshot.Resolution, target)
			return nil
		},
	}

	selection.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Файл снимка (по умолчанию camscope_<время>.jpg)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Вывести результат в JSON")
	return cmd
}
