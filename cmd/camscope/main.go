package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"camscope/internal/application"
	"camscope/internal/infrastructure/camera"
	"camscope/internal/presentation/cli"
)

func main() {
	cmd := cli.NewRootCommand(func(log application.Logger) application.Platform {
		return camera.NewMediaDevicesManager(log)
	})

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		}
		os.Exit(1)
	}
}
