package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand создаёт корневую команду camscope
func NewRootCommand(newPlatform PlatformFactory) *cobra.Command {
	var configFlag string
	var debugFlag bool

	ctx := newCommandContext(&configFlag, &debugFlag, newPlatform)

	rootCmd := &cobra.Command{
		Use:           "camscope",
		Short:         "Список камер устройства и живое превью",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			ctx.logOutput = cmd.ErrOrStderr()
			_, err := ctx.ensureLogger()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Путь к файлу конфигурации")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Включить отладочные сообщения")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newSnapCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
