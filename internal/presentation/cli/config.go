package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"camscope/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Работа с конфигурацией",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	configCmd.AddCommand(newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Создать пример файла конфигурации",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultPath
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("путь конфигурации: %w", err)
			}

			if !overwrite {
				if _, err := os.Stat(expanded); err == nil {
					return fmt.Errorf("файл конфигурации уже существует: %s (используйте --overwrite)", expanded)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("проверка пути конфигурации: %w", err)
				}
			}

			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Пример конфигурации записан в %s\n", expanded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Куда записать файл конфигурации")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Перезаписать существующий файл")
	return cmd
}
