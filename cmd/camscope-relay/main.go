package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"camscope/internal/config"
	"camscope/internal/infrastructure/logger"
	"camscope/internal/infrastructure/relay"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var listen string
	var outputDir string
	var debug bool

	cmd := &cobra.Command{
		Use:           "camscope-relay",
		Short:         "Ретранслятор превью camscope: принимает JPEG-кадры по WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Relay.Listen = listen
			}
			if cmd.Flags().Changed("output") {
				if cfg.Relay.RecordingDir, err = config.ExpandPath(outputDir); err != nil {
					return err
				}
			}
			if debug {
				cfg.Log.Level = "debug"
			}

			log, err := logger.New(logger.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := relay.New(log.Component("relay"), cfg.Relay.RecordingDir)
			return r.ListenAndServe(ctx, cfg.Relay.Listen)
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Путь к файлу конфигурации")
	cmd.Flags().StringVar(&listen, "listen", "", "Адрес прослушивания, например :8080")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Директория для записей .mjpeg (пусто - без записи)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Включить отладочные сообщения")
	return cmd
}
