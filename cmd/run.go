package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examgen/internal/app"
	"github.com/abhisek/examgen/internal/config"
	"github.com/abhisek/examgen/internal/logger"
)

// runApp builds dependencies and launches the TUI. Logs go to a file since
// the terminal belongs to the UI.
func runApp(cmd *cobra.Command, initialPath string) error {
	cfg := config.Load()

	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, logFile)

	d, err := buildDeps(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	log.Info().Str("provider", cfg.LLM.Provider).Bool("enabled", d.disabled == nil).Msg("starting terminal UI")

	return app.Run(app.Options{
		Workspace:   d.ws,
		MaxUpload:   cfg.MaxUploadBytes,
		OutputDir:   cfg.OutputDir,
		Disabled:    d.disabled,
		InitialPath: initialPath,
	})
}
