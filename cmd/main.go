package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/api"
	"github.com/reportconsole/internal/config"
	"github.com/reportconsole/internal/fallback"
	"github.com/reportconsole/internal/logger"
)

// The development server answers the console's API from the bundled
// fixtures, held in memory.
func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "reportconsole-devserver",
		Short:        "Serve the report backend API from bundled sample data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	assets, err := fallback.NewAssets()
	if err != nil {
		return err
	}
	defer assets.Close()

	store, err := api.NewStore(assets)
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	server := api.NewServer(store, cfg.Server, log)
	if err := server.Start(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
