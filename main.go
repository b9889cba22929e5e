package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "formrelay",
		Short:        "Form submission relay with email, lead log, webhook and CRM delivery",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newCRMCmd(&configPath),
		newLeadsCmd(&configPath),
	)
	return root
}

// loadConfig reads the configuration and initializes the logger from it
func loadConfig(path string) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	closer := logger.Init(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	slog.Info("configuration loaded successfully", "path", path, "forms", len(cfg.Forms))
	return cfg, closer, nil
}
