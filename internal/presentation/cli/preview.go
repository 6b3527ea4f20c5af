package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"camscope/internal/application"
	"camscope/internal/domain"
	"camscope/internal/infrastructure/streaming"
)

const previewHelp = "Команды: t - сменить фронтальную/тыловую, n - следующая камера, c - снимок, q - выход"

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var selection cameraSelection
	var relayURL string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Показать превью камеры через ретранслятор WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if url := strings.TrimSpace(relayURL); url != "" {
				cfg.Relay.URL = url
			}

			service, err := ctx.catalogService()
			if err != nil {
				return err
			}
			catalog, err := service.Scan(cmd.Context())
			if err != nil {
				return err
			}
			if catalog.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), domain.NoCameraMessage)
				return nil
			}

			streamer := streaming.NewWebSocketStreamer(log.Component("streaming"), cfg.Log.Level == "debug")
			manager, err := ctx.sessionManager(service, streamer)
			if err != nil {
				return err
			}
			defer manager.Stop()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := selection.start(runCtx, manager, cfg.Preview.Facing); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSession(out, manager.Snapshot())
			fmt.Fprintf(out, "Превью отправляется на %s\n", cfg.Relay.URL)

			if isTerminal(cmd.InOrStdin()) {
				fmt.Fprintln(out, previewHelp)
				go readControls(runCtx, cmd.InOrStdin(), out, manager, service, stop)
			}

			<-runCtx.Done()
			log.Info("Прерывание получено, закрытие...")
			if err := manager.Stop(); err != nil {
				log.Error("Ошибка остановки превью: %v", err)
			}
			fmt.Fprintf(out, "Отправлено кадров: %d\n", streamer.Sent())
			return nil
		},
	}

	selection.bind(cmd)
	cmd.Flags().StringVar(&relayURL, "relay", "", "Адрес ретранслятора, например ws://localhost:8080/ws")
	return cmd
}

// readControls обрабатывает команды управления превью из stdin
func readControls(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	manager *application.SessionManager,
	catalog application.CatalogProvider,
	quit context.CancelFunc,
) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "t":
			err = manager.ToggleFacing(ctx)
		case "n":
			err = manager.SwitchDevice(ctx, nextDevice(catalog.Current(), manager.Snapshot().DeviceID))
		case "c":
			err = saveStill(ctx, out, manager)
		case "q":
			quit()
			return
		case "":
			continue
		default:
			fmt.Fprintln(out, previewHelp)
			continue
		}

		if err != nil {
			fmt.Fprintf(out, "Ошибка: %v\n", err)
			continue
		}
		printSession(out, manager.Snapshot())
	}
}

// nextDevice возвращает камеру каталога, следующую за текущей
func nextDevice(catalog domain.Catalog, current string) string {
	if catalog.Empty() {
		return ""
	}
	for i, cam := range catalog.Cameras {
		if cam.DeviceID == current {
			return catalog.Cameras[(i+1)%catalog.Len()].DeviceID
		}
	}
	return catalog.Cameras[0].DeviceID
}

func saveStill(ctx context.Context, out io.Writer, manager *application.SessionManager) error {
	still, err := manager.CaptureStill(ctx)
	if err != nil {
		return err
	}
	target := fmt.Sprintf("camscope_%s.jpg", still.CapturedAt.Format("2006-01-02_15-04-05.000"))
	if err := os.WriteFile(target, still.JPEG, 0o644); err != nil {
		return fmt.Errorf("запись снимка: %w", err)
	}
	fmt.Fprintf(out, "Снимок сохранён в %s\n", target)
	return nil
}

func printSession(out io.Writer, snapshot application.SessionSnapshot) {
	if snapshot.State != application.StateActive {
		fmt.Fprintln(out, "Превью остановлено")
		return
	}
	label := snapshot.DeviceID
	if snapshot.Camera != nil {
		label = fmt.Sprintf("%s %s", snapshot.Camera.Icon, snapshot.Camera.DisplayLabel)
	}
	fmt.Fprintf(out, "Камера: %s, разрешение %s\n", label, snapshot.Resolution)
}
