package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"camscope/internal/infrastructure/hotplug"
	"camscope/internal/infrastructure/httpapi"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API каталога и превью",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = bind
			}

			service, err := ctx.catalogService()
			if err != nil {
				return err
			}
			manager, err := ctx.sessionManager(service, nil)
			if err != nil {
				return err
			}
			defer manager.Stop()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Первичное сканирование: ошибка не мешает запуску API, повторить можно через rescan
			if _, err := service.Scan(runCtx); err != nil {
				log.Error("Первичное сканирование не удалось: %v", err)
			}

			if cfg.Hotplug.Enabled {
				monitor := hotplug.NewMonitor(log.Component("hotplug"),
					time.Duration(cfg.Hotplug.DebounceMS)*time.Millisecond,
					func(ctx context.Context, event hotplug.Event) {
						if _, err := service.Scan(ctx); err != nil {
							log.Error("Пересканирование после %s %s не удалось: %v", event.Action, event.Device, err)
						}
					})
				if err := monitor.Start(runCtx); err != nil {
					return err
				}
				defer monitor.Stop()
			}

			server := httpapi.New(cfg.Server.Address(), service, manager, log.Component("http"), cfg.Preview.FrameRate)
			fmt.Fprintf(cmd.OutOrStdout(), "HTTP API: http://%s\n", cfg.Server.Address())
			return server.Start(runCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Порт HTTP API (по умолчанию из конфигурации)")
	cmd.Flags().StringVar(&bind, "bind", "", "Адрес HTTP API (по умолчанию из конфигурации)")
	return cmd
}
