package main

import (
	"log/slog"

	"github.com/akoskinen/devserve/cmd"
	"github.com/akoskinen/devserve/internal/conf"
	"github.com/akoskinen/devserve/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("error loading configuration", "error", err)
	}

	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}
