package main

import (
	"log/slog"

	"vpdetect/internal/config"
	"vpdetect/internal/logging"
	ui "vpdetect/internal/ui"

	"fyne.io/fyne/v2/app"
)

func main() {
	cfg, err := config.LoadConfigFile(config.DefaultConfigPath)
	if err != nil {
		logging.Setup("info", "text")
		slog.Warn("config not loaded, using defaults", "path", config.DefaultConfigPath, "error", err)
		cfg = config.NewDefaultConfig()
	} else {
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
	}

	slog.Info("starting", "endpoint", cfg.GetEndpoint(), "mode", cfg.GetMode())

	ui.CreateApp(app.New(), cfg).Run()
}
